package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrBlocked            = errors.New("recipient is blocklisted")
	ErrUnderCooldown      = errors.New("recipient is under cooldown")
	ErrCampaignRunning    = errors.New("a campaign is already running for this chat")
	ErrCancelled          = errors.New("operation cancelled")
	ErrUnsupportedFile    = errors.New("unsupported file type")
	ErrNotAdmin           = errors.New("command is restricted to admins")
)

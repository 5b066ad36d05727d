package repository

import (
	"context"
	"time"
)

// PendingSend is the short-lived chat state between a document upload and
// the operator confirming (or abandoning) a mass send.
type PendingSend struct {
	Emails     []string  `json:"emails"`
	GroupCode  string    `json:"group_code,omitempty"`
	SourceName string    `json:"source_name"`
	Skipped    int       `json:"skipped"`
	CreatedAt  time.Time `json:"created_at"`
}

type PendingSendRepository interface {
	Set(ctx context.Context, chatID int64, state *PendingSend) error
	Get(ctx context.Context, chatID int64) (*PendingSend, error)
	Clear(ctx context.Context, chatID int64) error
}

// CancelRegistry carries /cancel requests from the bot goroutine to a
// running campaign loop.
type CancelRegistry interface {
	RequestCancel(ctx context.Context, chatID int64) error
	IsCancelled(ctx context.Context, chatID int64) (bool, error)
	Reset(ctx context.Context, chatID int64) error
}

package repository

import (
	"context"

	"telegram-email-bot/internal/domain/model"
)

// -----------------------------
// Campaigns (mass send runs)
// -----------------------------

type CampaignRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Campaign) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Campaign, error)
	// FindRunningByChat returns the active campaign for a chat, if any.
	FindRunningByChat(ctx context.Context, tx Tx, chatID int64) (*model.Campaign, error)
}

package repository

import (
	"context"

	"telegram-email-bot/internal/domain/model"
)

// -----------------------------
// Blocklist
// -----------------------------

type BlocklistRepository interface {
	// Add inserts normalized addresses, skipping ones already present.
	// Returns the number of newly blocked addresses.
	Add(ctx context.Context, tx Tx, emails []string, reason string) (int, error)
	// Remove returns domain.ErrNotFound when the address was not blocked.
	Remove(ctx context.Context, tx Tx, email string) error
	Contains(ctx context.Context, tx Tx, email string) (bool, error)
	List(ctx context.Context, tx Tx, limit, offset int) ([]model.BlocklistEntry, error)
	Count(ctx context.Context, tx Tx) (int, error)
	// All returns every blocked address; used to warm the in-memory set
	// before building a send list.
	All(ctx context.Context, tx Tx) ([]string, error)
}

package repository

import (
	"context"
	"time"

	"telegram-email-bot/internal/domain/model"
)

// -----------------------------
// Send history
// -----------------------------

type HistoryRepository interface {
	// RecordSend stores one delivery attempt. Email must be canonicalized
	// by the caller.
	RecordSend(ctx context.Context, tx Tx, rec *model.SendRecord) error
	// LastSend returns the most recent send to the address within the group,
	// or nil when the pair was never contacted.
	LastSend(ctx context.Context, tx Tx, email, groupCode string) (*time.Time, error)
	// LastSendAnyGroup returns the most recent send to the address across
	// all groups together with the group it belonged to.
	LastSendAnyGroup(ctx context.Context, tx Tx, email string) (string, *time.Time, error)
	// CountSince aggregates per-group successful sends and errors after the
	// cutoff; used by stats and the daily digest.
	CountSince(ctx context.Context, tx Tx, since time.Time) (map[string]model.GroupSendStats, error)
	// PruneOlderThan deletes records older than the cutoff, returning how
	// many rows were removed.
	PruneOlderThan(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
}

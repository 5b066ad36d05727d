package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/infra/sendstats"
)

var _ CooldownService = (*cooldownUC)(nil)

// CooldownService answers whether an address was contacted too recently.
// It merges two sources of truth: the send_history table and the JSONL
// journal, taking the most recent timestamp of the two.
type CooldownService interface {
	LastSend(ctx context.Context, email string) (*time.Time, error)
	// ShouldSkip returns true with a human-readable reason when the address
	// is still inside the cooldown window at now.
	ShouldSkip(ctx context.Context, email string, now time.Time) (bool, string, error)
	// Snapshot preloads the journal view once; campaign loops call it to
	// avoid rescanning the file per recipient.
	Snapshot() (map[string]time.Time, error)
	Window() time.Duration
}

type cooldownUC struct {
	history repository.HistoryRepository
	journal *sendstats.Log
	window  time.Duration
	log     *zerolog.Logger
}

func NewCooldownService(history repository.HistoryRepository, journal *sendstats.Log, cooldownDays int, logger *zerolog.Logger) *cooldownUC {
	if cooldownDays <= 0 {
		cooldownDays = 180
	}
	return &cooldownUC{
		history: history,
		journal: journal,
		window:  time.Duration(cooldownDays) * 24 * time.Hour,
		log:     logger,
	}
}

func (u *cooldownUC) Window() time.Duration { return u.window }

func (u *cooldownUC) Snapshot() (map[string]time.Time, error) {
	return u.journal.LastSends()
}

func (u *cooldownUC) LastSend(ctx context.Context, email string) (*time.Time, error) {
	_, dbTime, err := u.history.LastSendAnyGroup(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	journal, err := u.journal.LastSends()
	if err != nil {
		return nil, err
	}
	return mergeLastSend(dbTime, journal, email), nil
}

func mergeLastSend(dbTime *time.Time, journal map[string]time.Time, email string) *time.Time {
	last := dbTime
	if jt, ok := journal[email]; ok {
		jt = jt.UTC()
		if last == nil || jt.After(*last) {
			last = &jt
		}
	}
	if last != nil {
		utc := last.UTC()
		last = &utc
	}
	return last
}

func (u *cooldownUC) ShouldSkip(ctx context.Context, email string, now time.Time) (bool, string, error) {
	last, err := u.LastSend(ctx, email)
	if err != nil {
		return false, "", err
	}
	return u.evaluate(last, now)
}

func (u *cooldownUC) evaluate(last *time.Time, now time.Time) (bool, string, error) {
	if last == nil {
		return false, "", nil
	}
	until := last.Add(u.window)
	if now.UTC().Before(until) {
		return true, fmt.Sprintf("cooldown until %s", until.UTC().Format("2006-01-02")), nil
	}
	return false, "", nil
}

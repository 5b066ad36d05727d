package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/infra/sendstats"
)

var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase aggregates delivery numbers for /stats, the admin API and
// the daily digest.
type StatsUseCase interface {
	Summary(ctx context.Context, since time.Time) (map[string]model.GroupSendStats, error)
	// DigestText renders a one-message overview of the last 24 hours.
	DigestText(ctx context.Context) (string, error)
	// PruneHistory removes records older than the retention window from
	// both the database and the journal.
	PruneHistory(ctx context.Context, retention time.Duration) (int64, error)
}

type statsUC struct {
	history   repository.HistoryRepository
	blocklist repository.BlocklistRepository
	journal   *sendstats.Log
	log       *zerolog.Logger
}

func NewStatsUseCase(history repository.HistoryRepository, blocklist repository.BlocklistRepository, journal *sendstats.Log, logger *zerolog.Logger) *statsUC {
	return &statsUC{history: history, blocklist: blocklist, journal: journal, log: logger}
}

func (u *statsUC) Summary(ctx context.Context, since time.Time) (map[string]model.GroupSendStats, error) {
	return u.history.CountSince(ctx, nil, since.UTC())
}

func (u *statsUC) DigestText(ctx context.Context) (string, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	perGroup, err := u.Summary(ctx, since)
	if err != nil {
		return "", err
	}
	blocked, err := u.blocklist.Count(ctx, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Daily send digest\n")
	if len(perGroup) == 0 {
		b.WriteString("No deliveries in the last 24 hours.\n")
	} else {
		codes := make([]string, 0, len(perGroup))
		for code := range perGroup {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		totalSent, totalErr := 0, 0
		for _, code := range codes {
			s := perGroup[code]
			totalSent += s.Sent
			totalErr += s.Errors
			fmt.Fprintf(&b, "%s: %d sent, %d errors\n", code, s.Sent, s.Errors)
		}
		fmt.Fprintf(&b, "Total: %d sent, %d errors\n", totalSent, totalErr)
	}
	fmt.Fprintf(&b, "Blocklist size: %d\n", blocked)
	return b.String(), nil
}

func (u *statsUC) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	rows, err := u.history.PruneOlderThan(ctx, nil, cutoff)
	if err != nil {
		return 0, err
	}
	dropped, err := u.journal.Prune(cutoff)
	if err != nil {
		u.log.Warn().Err(err).Msg("journal prune failed")
	}
	u.log.Info().
		Int64("db_rows", rows).
		Int("journal_lines", dropped).
		Time("cutoff", cutoff).
		Msg("history pruned")
	return rows, nil
}

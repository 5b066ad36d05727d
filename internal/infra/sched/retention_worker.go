package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"telegram-email-bot/internal/usecase"
)

// RetentionWorker prunes old history on a cron schedule so the database and
// the journal stay within the retention window.
type RetentionWorker struct {
	spec      string
	retention time.Duration
	stats     usecase.StatsUseCase
	log       *zerolog.Logger
}

func NewRetentionWorker(spec string, retentionDays int, stats usecase.StatsUseCase, logger *zerolog.Logger) *RetentionWorker {
	compLog := logger.With().Str("component", "RetentionWorker").Logger()
	if retentionDays <= 0 {
		retentionDays = 730
	}
	return &RetentionWorker{
		spec:      spec,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		stats:     stats,
		log:       &compLog,
	}
}

// Register attaches the job to the shared cron runner.
func (w *RetentionWorker) Register(ctx context.Context, c *cron.Cron) error {
	_, err := c.AddFunc(w.spec, func() {
		w.run(ctx)
	})
	return err
}

func (w *RetentionWorker) run(ctx context.Context) {
	n, err := w.stats.PruneHistory(ctx, w.retention)
	if err != nil {
		w.log.Error().Err(err).Msg("retention prune failed")
		return
	}
	if n > 0 {
		w.log.Info().Int64("rows", n).Msg("retention prune done")
	}
}

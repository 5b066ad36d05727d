package sched

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain/ports/adapter"
	"telegram-email-bot/internal/usecase"
)

// DigestWorker posts the daily delivery summary to every admin chat.
type DigestWorker struct {
	spec   string
	admins []int64
	stats  usecase.StatsUseCase
	bot    adapter.BotMessenger
	log    *zerolog.Logger
}

func NewDigestWorker(spec string, admins []int64, stats usecase.StatsUseCase, bot adapter.BotMessenger, logger *zerolog.Logger) *DigestWorker {
	compLog := logger.With().Str("component", "DigestWorker").Logger()
	return &DigestWorker{
		spec:   spec,
		admins: admins,
		stats:  stats,
		bot:    bot,
		log:    &compLog,
	}
}

func (w *DigestWorker) Register(ctx context.Context, c *cron.Cron) error {
	_, err := c.AddFunc(w.spec, func() {
		w.run(ctx)
	})
	return err
}

func (w *DigestWorker) run(ctx context.Context) {
	if len(w.admins) == 0 {
		return
	}
	text, err := w.stats.DigestText(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("digest build failed")
		return
	}
	for _, chatID := range w.admins {
		if err := w.bot.SendMessage(ctx, chatID, text); err != nil {
			w.log.Warn().Err(err).Int64("chat_id", chatID).Msg("digest delivery failed")
		}
	}
	w.log.Info().Int("admins", len(w.admins)).Msg("digest sent")
}

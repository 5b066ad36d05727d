package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain/ports/adapter"
)

var _ adapter.BotMessenger = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs outgoing messages instead of talking to Telegram.
// Used when running without a bot token, e.g. smoke-testing extraction
// and SMTP wiring locally.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("noop message")
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Int("button_rows", len(rows)).Msg("noop message")
	return nil
}

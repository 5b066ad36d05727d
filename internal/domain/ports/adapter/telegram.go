package adapter

import "context"

// InlineButton is one tappable button in an inline keyboard row. Data
// carries the callback payload; when URL is set the button opens a link
// instead.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// BotMessenger is the outbound side of the chat adapter. Schedulers and
// campaign progress callbacks push text through it without depending on
// the bot API client.
type BotMessenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
}

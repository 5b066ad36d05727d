package adapter

import "context"

// OutgoingMail is a fully rendered message ready for the wire.
type OutgoingMail struct {
	To        string
	Subject   string
	BodyHTML  string
	GroupCode string
	RunID     string
}

// SendResult carries delivery metadata back to the dispatcher.
type SendResult struct {
	MessageID string
	SMTPCode  int
}

// Mailer abstracts the SMTP gateway so the dispatch use case can be tested
// without a live server.
type Mailer interface {
	Send(ctx context.Context, mail *OutgoingMail) (*SendResult, error)
	Close() error
}

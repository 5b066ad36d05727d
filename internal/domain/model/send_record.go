package model

import "time"

// SendRecord is one successful or failed delivery attempt as stored in the
// send history. Email is already canonicalized; GroupCode may be empty for
// manual one-off sends.
type SendRecord struct {
	Email      string
	GroupCode  string
	SentAt     time.Time
	MessageID  string
	RunID      string
	SMTPResult string
}

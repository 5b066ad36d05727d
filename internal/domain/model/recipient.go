package model

import (
	"time"
)

// Recipient is a single extracted e-mail address together with where it was
// found. Source is a short label (pdf, xlsx, docx, csv, zip, manual) and
// SourceRef points at the concrete location, e.g. "report.pdf|3" for page 3.
type Recipient struct {
	Email     string
	Source    string
	SourceRef string
	Status    string
	LastSent  *time.Time
}

func (r *Recipient) IsZero() bool { return r == nil || r.Email == "" }

// WrapEmails lifts plain addresses into Recipient records sharing one source.
func WrapEmails(emails []string, source string) []Recipient {
	out := make([]Recipient, 0, len(emails))
	for _, e := range emails {
		out = append(out, Recipient{Email: e, Source: source, Status: "new"})
	}
	return out
}

package model

import (
	"time"

	"telegram-email-bot/internal/domain"
)

// Group is a mailing direction: a named audience that shares a template
// and its own slice of the send history.
type Group struct {
	Code      string
	Title     string
	Signature string
	CreatedAt time.Time
}

func (g *Group) IsZero() bool { return g == nil || g.Code == "" }

// NewGroup validates and constructs a group.
func NewGroup(code, title, signature string) (*Group, error) {
	if code == "" || title == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Group{
		Code:      code,
		Title:     title,
		Signature: signature,
		CreatedAt: time.Now(),
	}, nil
}

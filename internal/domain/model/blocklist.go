package model

import "time"

// BlocklistEntry is a permanently excluded address. Reason is free text
// ("manual", "bounce", "unsubscribe").
type BlocklistEntry struct {
	Email   string
	Reason  string
	AddedAt time.Time
}

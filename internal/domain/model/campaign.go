package model

import (
	"time"

	"telegram-email-bot/internal/domain"

	"github.com/google/uuid"
)

// CampaignState is the lifecycle of a mass send run.
type CampaignState string

const (
	CampaignRunning   CampaignState = "running"
	CampaignDone      CampaignState = "done"
	CampaignCancelled CampaignState = "cancelled"
	CampaignFailed    CampaignState = "failed"
)

// Outcome classifies what happened to a single recipient within a run.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeCooldown  Outcome = "cooldown"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeError     Outcome = "error"
)

// Campaign is one mass send run launched from a Telegram chat.
type Campaign struct {
	ID        string
	GroupCode string
	ChatID    int64
	Total     int
	Counts    map[Outcome]int
	State     CampaignState
	StartedAt time.Time
	EndedAt   *time.Time
}

func NewCampaign(groupCode string, chatID int64, total int) (*Campaign, error) {
	if groupCode == "" || total <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Campaign{
		ID:        uuid.NewString(),
		GroupCode: groupCode,
		ChatID:    chatID,
		Total:     total,
		Counts:    make(map[Outcome]int),
		State:     CampaignRunning,
		StartedAt: time.Now(),
	}, nil
}

func (c *Campaign) IsZero() bool { return c == nil || c.ID == "" }

// Record tallies one outcome.
func (c *Campaign) Record(o Outcome) { c.Counts[o]++ }

// Processed is how many recipients have a recorded outcome so far.
func (c *Campaign) Processed() int {
	n := 0
	for _, v := range c.Counts {
		n += v
	}
	return n
}

// Finish moves the campaign to a terminal state and stamps EndedAt.
func (c *Campaign) Finish(state CampaignState) {
	now := time.Now()
	c.State = state
	c.EndedAt = &now
}

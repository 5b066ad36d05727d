package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/emailaddr"
	"telegram-email-bot/internal/infra/logging"
)

const (
	SkipInvalid   = "invalid"
	SkipRoleLike  = "role_like"
	SkipBlocked   = "blocked"
	SkipDuplicate = "duplicate"
	SkipCooldown  = "cooldown"
	SkipSentToday = "sent_today"
)

// SkipEntry explains why one address was excluded from a send list.
type SkipEntry struct {
	Email  string
	Reason string
}

// SendList is the filtered, order-preserving set of recipients for a run.
type SendList struct {
	Recipients []string
	Skipped    []SkipEntry
	Counts     map[string]int
}

func (l *SendList) note(email, reason string) {
	l.Skipped = append(l.Skipped, SkipEntry{Email: email, Reason: reason})
	l.Counts[reason]++
}

var _ SendListUseCase = (*sendListUC)(nil)

// SendListUseCase filters raw extracted addresses down to the ones a
// campaign may actually contact.
type SendListUseCase interface {
	Build(ctx context.Context, emails []string) (*SendList, error)
}

// blockedCacheTTL bounds how long a Build may run against a stale
// blocklist snapshot.
const blockedCacheTTL = time.Minute

type sendListUC struct {
	blocklist repository.BlocklistRepository
	cooldown  CooldownService
	history   repository.HistoryRepository
	log       *zerolog.Logger

	mu          sync.Mutex
	blockedMemo map[string]struct{}
	blockedAt   time.Time
}

func NewSendListUseCase(blocklist repository.BlocklistRepository, cooldown CooldownService, history repository.HistoryRepository, logger *zerolog.Logger) *sendListUC {
	return &sendListUC{blocklist: blocklist, cooldown: cooldown, history: history, log: logger}
}

// Build walks the input in order, dropping invalid, role-like, blocked,
// duplicate and under-cooldown addresses. Infrastructure failures during
// the cooldown check fail open: better to occasionally re-mail someone
// than silently drop a whole list.
func (u *sendListUC) Build(ctx context.Context, emails []string) (*SendList, error) {
	defer logging.TraceDuration(u.log, "SendListUC.Build")()

	blocked, err := u.blockedSet(ctx)
	if err != nil {
		return nil, err
	}
	journal, err := u.cooldown.Snapshot()
	if err != nil {
		u.log.Warn().Err(err).Msg("send journal unavailable, cooldown degraded to history only")
		journal = map[string]time.Time{}
	}

	now := time.Now().UTC()
	list := &SendList{Counts: make(map[string]int)}
	seen := make(map[string]struct{}, len(emails))

	for _, raw := range emails {
		key := emailaddr.CanonicalKey(raw)
		if key == "" || !emailaddr.IsEmail(key) {
			list.note(raw, SkipInvalid)
			continue
		}
		if emailaddr.IsRoleLike(key) {
			list.note(key, SkipRoleLike)
			continue
		}
		if _, dup := seen[key]; dup {
			list.note(key, SkipDuplicate)
			continue
		}
		seen[key] = struct{}{}
		if _, isBlocked := blocked[key]; isBlocked {
			list.note(key, SkipBlocked)
			continue
		}
		reason, err := u.skipReason(ctx, key, journal, now)
		if err != nil {
			u.log.Warn().Err(err).Str("email", logging.RedactEmail(key)).Msg("cooldown check failed, allowing send")
		} else if reason != "" {
			list.note(key, reason)
			continue
		}
		list.Recipients = append(list.Recipients, key)
	}

	u.log.Info().
		Int("in", len(emails)).
		Int("out", len(list.Recipients)).
		Interface("skipped", list.Counts).
		Msg("send list built")
	return list, nil
}

// blockedSet returns the blocklist as a lookup set, re-reading the table
// only after blockedCacheTTL so back-to-back Builds share one snapshot.
func (u *sendListUC) blockedSet(ctx context.Context) (map[string]struct{}, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.blockedMemo != nil && time.Since(u.blockedAt) < blockedCacheTTL {
		return u.blockedMemo, nil
	}
	all, err := u.blocklist.All(ctx, nil)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(all))
	for _, e := range all {
		set[e] = struct{}{}
	}
	u.blockedMemo = set
	u.blockedAt = time.Now()
	return set, nil
}

// skipReason applies the history guards. Same-day sends are dropped even
// when the cooldown window is disabled.
func (u *sendListUC) skipReason(ctx context.Context, email string, journal map[string]time.Time, now time.Time) (string, error) {
	_, dbTime, err := u.history.LastSendAnyGroup(ctx, nil, email)
	if err != nil {
		return "", err
	}
	last := mergeLastSend(dbTime, journal, email)
	if last == nil {
		return "", nil
	}
	lastUTC := last.UTC()
	if lastUTC.Year() == now.Year() && lastUTC.YearDay() == now.YearDay() {
		return SkipSentToday, nil
	}
	if w := u.cooldown.Window(); w > 0 && now.Before(last.Add(w)) {
		return SkipCooldown, nil
	}
	return "", nil
}

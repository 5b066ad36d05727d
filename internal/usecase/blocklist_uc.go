package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/domain/model"
	"telegram-email-bot/internal/domain/ports/repository"
	"telegram-email-bot/internal/emailaddr"
	"telegram-email-bot/internal/infra/logging"
	"telegram-email-bot/internal/infra/metrics"
)

// Compile-time check
var _ BlocklistUseCase = (*blocklistUC)(nil)

// BlocklistUseCase manages the do-not-contact list.
type BlocklistUseCase interface {
	// Block normalizes and stores addresses, returning how many were new.
	Block(ctx context.Context, emails []string, reason string) (int, error)
	Unblock(ctx context.Context, email string) error
	IsBlocked(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]model.BlocklistEntry, error)
	Count(ctx context.Context) (int, error)
}

type blocklistUC struct {
	blocklist repository.BlocklistRepository
	log       *zerolog.Logger
}

func NewBlocklistUseCase(blocklist repository.BlocklistRepository, logger *zerolog.Logger) *blocklistUC {
	return &blocklistUC{blocklist: blocklist, log: logger}
}

func (u *blocklistUC) Block(ctx context.Context, emails []string, reason string) (int, error) {
	defer logging.TraceDuration(u.log, "BlocklistUC.Block")()

	normalized := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, raw := range emails {
		key := emailaddr.CanonicalKey(raw)
		if key == "" || !emailaddr.IsEmail(key) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	if len(normalized) == 0 {
		return 0, nil
	}

	added, err := u.blocklist.Add(ctx, nil, normalized, reason)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		if total, cErr := u.blocklist.Count(ctx, nil); cErr == nil {
			metrics.SetBlocklistSize(total)
		}
		u.log.Info().Int("added", added).Msg("addresses blocked")
	}
	return added, nil
}

func (u *blocklistUC) Unblock(ctx context.Context, email string) error {
	key := emailaddr.CanonicalKey(email)
	if err := u.blocklist.Remove(ctx, nil, key); err != nil {
		return err
	}
	if total, err := u.blocklist.Count(ctx, nil); err == nil {
		metrics.SetBlocklistSize(total)
	}
	u.log.Info().Str("email", logging.RedactEmail(key)).Msg("address unblocked")
	return nil
}

func (u *blocklistUC) IsBlocked(ctx context.Context, email string) (bool, error) {
	return u.blocklist.Contains(ctx, nil, emailaddr.CanonicalKey(email))
}

func (u *blocklistUC) List(ctx context.Context, limit, offset int) ([]model.BlocklistEntry, error) {
	return u.blocklist.List(ctx, nil, limit, offset)
}

func (u *blocklistUC) Count(ctx context.Context) (int, error) {
	return u.blocklist.Count(ctx, nil)
}

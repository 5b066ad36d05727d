package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.PendingSendRepository = (*PendingSendRepo)(nil)

// PendingSendRepo holds the emails extracted from an uploaded document
// until the operator picks a group and confirms the send.
type PendingSendRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewPendingSendRepo(client RedisClient, ttl time.Duration) repository.PendingSendRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PendingSendRepo{client: client, ttl: ttl}
}

func (s *PendingSendRepo) stateKey(chatID int64) string {
	return fmt.Sprintf("pending_send:%d", chatID)
}

func (s *PendingSendRepo) Set(ctx context.Context, chatID int64, state *repository.PendingSend) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(chatID), data, s.ttl)
}

func (s *PendingSendRepo) Get(ctx context.Context, chatID int64) (*repository.PendingSend, error) {
	data, err := s.client.Get(ctx, s.stateKey(chatID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var state repository.PendingSend
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *PendingSendRepo) Clear(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, s.stateKey(chatID))
}

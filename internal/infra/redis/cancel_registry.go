package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-email-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.CancelRegistry = (*CancelRegistry)(nil)

// CancelRegistry flags a chat's running campaign for cancellation. The flag
// expires on its own so a crashed run cannot poison the next one.
type CancelRegistry struct {
	client RedisClient
	ttl    time.Duration
}

func NewCancelRegistry(client RedisClient) *CancelRegistry {
	return &CancelRegistry{client: client, ttl: 2 * time.Hour}
}

func (c *CancelRegistry) cancelKey(chatID int64) string {
	return fmt.Sprintf("cancel:%d", chatID)
}

func (c *CancelRegistry) RequestCancel(ctx context.Context, chatID int64) error {
	return c.client.Set(ctx, c.cancelKey(chatID), "1", c.ttl)
}

func (c *CancelRegistry) IsCancelled(ctx context.Context, chatID int64) (bool, error) {
	_, err := c.client.Get(ctx, c.cancelKey(chatID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *CancelRegistry) Reset(ctx context.Context, chatID int64) error {
	return c.client.Del(ctx, c.cancelKey(chatID))
}

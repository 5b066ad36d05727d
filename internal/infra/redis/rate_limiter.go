package redis

import (
	"context"
	"fmt"
	"time"
)

// CommandLimiter throttles bot commands per chat with a fixed redis
// window. It fails open: the bot must keep answering operators when
// redis hiccups.
type CommandLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewCommandLimiter(client RedisClient, limit int, window time.Duration) *CommandLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &CommandLimiter{client: client, limit: limit, window: window}
}

// Allow reports whether the chat may run the command right now.
func (l *CommandLimiter) Allow(ctx context.Context, chatID int64, command string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%d:%s", chatID, command)
	count, err := l.client.Incr(ctx, key)
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window); err != nil {
			return true, err
		}
	}
	return count <= int64(l.limit), nil
}

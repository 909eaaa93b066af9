package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/junekoh/mealmeet/internal/storage"
	"github.com/junekoh/mealmeet/internal/util"
)

// LoginAttemptLimiter counts login attempts per key with INCR and lets the
// window expire naturally.
type LoginAttemptLimiter struct {
	client *redis.Client
	cfg    *util.LoginLimiterConfig
}

func NewLoginAttemptLimiter(client *redis.Client, cfg *util.LoginLimiterConfig) *LoginAttemptLimiter {
	return &LoginAttemptLimiter{client: client, cfg: cfg}
}

func (l *LoginAttemptLimiter) Allow(ctx context.Context, key string) error {
	redisKey := "login_attempts:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("failed to count login attempt: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("failed to set attempt window: %w", err)
		}
	}

	if count > int64(l.cfg.MaxAttempts) {
		return storage.ErrRateLimited
	}

	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter is a fixed-window counter of login attempts per identifier.
// Every attempt is counted before the password is checked; the window starts
// at the first attempt and resets on expiry or a successful login.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter allows maxAttempts unsuccessful attempts per window.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Reserve atomically counts an attempt for identifier and reports whether it
// is within the budget. Concurrent callers each get a distinct count.
func (l *LoginLimiter) Reserve(ctx context.Context, identifier string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}
	key := limiterKey(identifier)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("login limiter incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("login limiter expire: %w", err)
		}
	}
	return n <= l.maxAttempts, nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, limiterKey(identifier)).Err(); err != nil {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}

func limiterKey(identifier string) string { return "login_fail:" + identifier }

package utils

import (
	"context" // Context for Redis operations
	"errors"  // Sentinel comparison
	"time"    // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// LoginThrottle counts failed logins per key within a window
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error) // False once the key is over the limit
	Fail(ctx context.Context, key string) error          // Record a failed attempt
	Reset(ctx context.Context, key string) error         // Forget the key after a success
}

// NoopThrottle never blocks; used when Redis is not configured
type NoopThrottle struct{}

func (NoopThrottle) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoopThrottle) Fail(context.Context, string) error          { return nil }
func (NoopThrottle) Reset(context.Context, string) error         { return nil }

// RedisThrottle keeps one counter per key with a TTL equal to the window
type RedisThrottle struct {
	rdb    redis.Cmdable // Redis client
	max    int           // Failures allowed per window
	window time.Duration // Counter lifetime
	prefix string        // Key namespace
}

// NewRedisThrottle builds a throttle on top of a Redis client
func NewRedisThrottle(rdb redis.Cmdable, max int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, max: max, window: window, prefix: "login:fail:"}
}

// Allow reports whether another attempt is permitted for key
func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	n, err := t.rdb.Get(ctx, t.prefix+key).Int() // Get failure count from Redis
	if errors.Is(err, redis.Nil) {
		return true, nil // Key does not exist
	} else if err != nil {
		return true, err // Other Redis error, caller decides
	}
	return n < t.max, nil
}

// Fail increments the counter and starts the window on the first failure
func (t *RedisThrottle) Fail(ctx context.Context, key string) error {
	k := t.prefix + key
	n, err := t.rdb.Incr(ctx, k).Result() // Increment failure count
	if err != nil {
		return err
	}
	if n == 1 {
		return t.rdb.Expire(ctx, k, t.window).Err() // First failure opens the window
	}
	return nil
}

// Reset deletes the counter for key
func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	return t.rdb.Del(ctx, t.prefix+key).Err() // Delete key from Redis
}

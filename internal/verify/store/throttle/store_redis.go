package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	counterKeyPrefix = "docauth:throttle:"
	lockKeyPrefix    = "docauth:lockout:"
)

// RedisStore implements ports.ThrottleStore on Redis. INCR gives the
// atomic increment-and-read; the window is a key TTL set on first increment.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis creates a Redis-backed throttle store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Increment implements ports.ThrottleStore.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	redisKey := counterKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("incr throttle counter: %w", err)
	}
	if count == 1 {
		// First attempt in the window owns the TTL.
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, fmt.Errorf("set throttle window: %w", err)
		}
	}
	return int(count), nil
}

// Count implements ports.ThrottleStore.
func (s *RedisStore) Count(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, counterKeyPrefix+key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get throttle counter: %w", err)
	}
	return count, nil
}

// Lock implements ports.ThrottleStore. The lock value carries its own expiry
// so LockedUntil can report it without clock coordination.
func (s *RedisStore) Lock(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	err := s.client.Set(ctx, lockKeyPrefix+key, until.UTC().Format(time.RFC3339Nano), ttl).Err()
	if err != nil {
		return fmt.Errorf("set lockout: %w", err)
	}
	return nil
}

// LockedUntil implements ports.ThrottleStore.
func (s *RedisStore) LockedUntil(ctx context.Context, key string) (*time.Time, error) {
	val, err := s.client.Get(ctx, lockKeyPrefix+key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lockout: %w", err)
	}
	until, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, fmt.Errorf("parse lockout expiry: %w", err)
	}
	return &until, nil
}

// Reset implements ports.ThrottleStore.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, counterKeyPrefix+key, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset throttle: %w", err)
	}
	return nil
}

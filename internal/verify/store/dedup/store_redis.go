package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docauth/internal/verify/models"
)

const keyPrefix = "docauth:dedup:"

// RedisStore implements ports.DedupStore on Redis sets. One set per
// session+side; the whole set expires with the session.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis creates a Redis-backed dedup store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(sessionID string, side models.ImageSide) string {
	return keyPrefix + sessionID + ":" + string(side)
}

// Add implements ports.DedupStore.
func (s *RedisStore) Add(ctx context.Context, sessionID string, side models.ImageSide, fp models.Fingerprint, ttl time.Duration) error {
	if fp.IsZero() {
		return nil
	}
	key := redisKey(sessionID, side)
	if err := s.client.SAdd(ctx, key, string(fp)).Err(); err != nil {
		return fmt.Errorf("add failed fingerprint: %w", err)
	}
	// Refresh on every write so the set outlives the newest attempt, not
	// just the first.
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("set fingerprint ttl: %w", err)
	}
	return nil
}

// Contains implements ports.DedupStore.
func (s *RedisStore) Contains(ctx context.Context, sessionID string, side models.ImageSide, fp models.Fingerprint) (bool, error) {
	if fp.IsZero() {
		return false, nil
	}
	known, err := s.client.SIsMember(ctx, redisKey(sessionID, side), string(fp)).Result()
	if err != nil {
		return false, fmt.Errorf("check failed fingerprint: %w", err)
	}
	return known, nil
}

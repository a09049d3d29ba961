package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docauth/internal/verify/models"
	"docauth/pkg/platform/sentinel"
)

const resultKeyPrefix = "docauth:session-result:"

// RedisResults implements ResultStore on Redis, one JSON document per
// session with a TTL matching the token lifetime.
type RedisResults struct {
	client redis.UniversalClient
}

// NewRedisResults creates a Redis-backed result store.
func NewRedisResults(client redis.UniversalClient) *RedisResults {
	return &RedisResults{client: client}
}

// Save implements ResultStore.
func (s *RedisResults) Save(ctx context.Context, sessionID string, outcome *models.NormalizedOutcome, ttl time.Duration) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal session result: %w", err)
	}
	if err := s.client.Set(ctx, resultKeyPrefix+sessionID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session result: %w", err)
	}
	return nil
}

// Load implements ResultStore.
func (s *RedisResults) Load(ctx context.Context, sessionID string) (*models.NormalizedOutcome, error) {
	payload, err := s.client.Get(ctx, resultKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session result: %w", err)
	}

	var outcome models.NormalizedOutcome
	if err := json.Unmarshal(payload, &outcome); err != nil {
		return nil, fmt.Errorf("decode session result: %w", err)
	}
	return &outcome, nil
}

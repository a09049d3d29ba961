package session

import (
	"context"
	"sync"
	"time"

	"docauth/internal/verify/models"
	"docauth/pkg/platform/sentinel"
)

// InMemoryResults implements ResultStore in process memory. Entries expire
// lazily on read.
type InMemoryResults struct {
	mu      sync.RWMutex
	results map[string]storedResult
}

type storedResult struct {
	outcome   *models.NormalizedOutcome
	expiresAt time.Time
}

// NewInMemoryResults creates an empty in-memory result store.
func NewInMemoryResults() *InMemoryResults {
	return &InMemoryResults{results: make(map[string]storedResult)}
}

// Save implements ResultStore.
func (s *InMemoryResults) Save(ctx context.Context, sessionID string, outcome *models.NormalizedOutcome, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[sessionID] = storedResult{outcome: outcome, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Load implements ResultStore.
func (s *InMemoryResults) Load(ctx context.Context, sessionID string) (*models.NormalizedOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.results[sessionID]
	if !ok || time.Now().After(stored.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	return stored.outcome, nil
}

package throttle

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements ports.ThrottleStore with fixed-window counters.
// Suitable for single-process deployments and tests; distributed deployments
// use the Redis or Postgres store.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	locks    map[string]time.Time
}

type counter struct {
	count     int
	expiresAt time.Time
}

// NewInMemory creates an empty in-memory throttle store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		counters: make(map[string]*counter),
		locks:    make(map[string]time.Time),
	}
}

// Increment implements ports.ThrottleStore. Check and increment happen under
// one lock hold, so concurrent attempts serialize here.
func (s *InMemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c := s.counters[key]
	if c == nil || now.After(c.expiresAt) {
		c = &counter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

// Count implements ports.ThrottleStore.
func (s *InMemoryStore) Count(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters[key]
	if c == nil || time.Now().After(c.expiresAt) {
		return 0, nil
	}
	return c.count, nil
}

// Lock implements ports.ThrottleStore.
func (s *InMemoryStore) Lock(ctx context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[key] = until
	return nil
}

// LockedUntil implements ports.ThrottleStore.
func (s *InMemoryStore) LockedUntil(ctx context.Context, key string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.locks[key]
	if !ok || time.Now().After(until) {
		return nil, nil
	}
	return &until, nil
}

// Reset implements ports.ThrottleStore.
func (s *InMemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	delete(s.locks, key)
	return nil
}

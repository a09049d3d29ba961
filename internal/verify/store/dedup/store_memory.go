package dedup

import (
	"context"
	"sync"
	"time"

	"docauth/internal/verify/models"
)

// InMemoryStore implements ports.DedupStore with per-session fingerprint
// sets. Entries expire lazily on read.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*entry
}

type entry struct {
	fingerprints map[models.Fingerprint]struct{}
	expiresAt    time.Time
}

// NewInMemory creates an empty in-memory dedup store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*entry)}
}

func recordKey(sessionID string, side models.ImageSide) string {
	return sessionID + ":" + string(side)
}

// Add implements ports.DedupStore.
func (s *InMemoryStore) Add(ctx context.Context, sessionID string, side models.ImageSide, fp models.Fingerprint, ttl time.Duration) error {
	if fp.IsZero() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(sessionID, side)
	e := s.records[key]
	if e == nil || time.Now().After(e.expiresAt) {
		e = &entry{fingerprints: make(map[models.Fingerprint]struct{})}
		s.records[key] = e
	}
	e.fingerprints[fp] = struct{}{}
	e.expiresAt = time.Now().Add(ttl)
	return nil
}

// Contains implements ports.DedupStore.
func (s *InMemoryStore) Contains(ctx context.Context, sessionID string, side models.ImageSide, fp models.Fingerprint) (bool, error) {
	if fp.IsZero() {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.records[recordKey(sessionID, side)]
	if e == nil || time.Now().After(e.expiresAt) {
		return false, nil
	}
	_, ok := e.fingerprints[fp]
	return ok, nil
}

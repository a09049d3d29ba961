// Package dedup distinguishes a user re-uploading the same failing image
// from uploading a new one. It keeps fingerprints of images whose attempts
// were rejected on content or PII grounds, scoped to one capture session.
package dedup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docauth/internal/verify/models"
	"docauth/internal/verify/ports"
	dErrors "docauth/pkg/domain-errors"
)

// Store is an alias to the shared interface.
type Store = ports.DedupStore

// Known reports which of a fresh attempt's images were already recorded as
// failing earlier in the same session.
type Known struct {
	FrontIsKnownFailure bool
	BackIsKnownFailure  bool
}

// Any reports whether at least one side is a known failure.
func (k Known) Any() bool {
	return k.FrontIsKnownFailure || k.BackIsKnownFailure
}

// Tracker owns the recording policy over a DedupStore. Callers must invoke
// RecordFailure only for content rejections and PII failures; a network
// error says nothing about the image and must never be recorded.
type Tracker struct {
	store   Store
	ttl     time.Duration
	enabled bool
	logger  *slog.Logger
}

// Option configures the Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithEnabled toggles failed-image tracking. When disabled the tracker
// records nothing and reports nothing as known.
func WithEnabled(enabled bool) Option {
	return func(t *Tracker) {
		t.enabled = enabled
	}
}

// New creates a resubmission tracker. Records live as long as the capture
// session they belong to.
func New(store Store, sessionTTL time.Duration, opts ...Option) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("dedup store is required")
	}
	if sessionTTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	t := &Tracker{store: store, ttl: sessionTTL, enabled: true}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RecordFailure records the fingerprints of a rejected attempt. Side
// selection is deliberately asymmetric: when the rejection is attributable
// to exactly one side, only that side's fingerprint is recorded; when it is
// attributable to neither or to both, both fingerprints are recorded. A
// later byte-identical resubmission is then flagged on exactly the sides
// that carried the blame.
func (t *Tracker) RecordFailure(ctx context.Context, sessionID string, front, back models.Fingerprint, frontFailed, backFailed bool) error {
	if !t.enabled || sessionID == "" {
		return nil
	}

	recordFront, recordBack := true, true
	if frontFailed != backFailed {
		recordFront, recordBack = frontFailed, backFailed
	}

	if recordFront {
		if err := t.store.Add(ctx, sessionID, models.SideFront, front, t.ttl); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record front fingerprint")
		}
	}
	if recordBack {
		if err := t.store.Add(ctx, sessionID, models.SideBack, back, t.ttl); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record back fingerprint")
		}
	}

	if t.logger != nil {
		t.logger.DebugContext(ctx, "recorded failed attempt fingerprints",
			"front", recordFront,
			"back", recordBack,
		)
	}
	return nil
}

// Check reports whether the submitted fingerprints match a previously
// recorded failure.
func (t *Tracker) Check(ctx context.Context, sessionID string, front, back models.Fingerprint) (*Known, error) {
	known := &Known{}
	if !t.enabled || sessionID == "" {
		return known, nil
	}

	var err error
	known.FrontIsKnownFailure, err = t.store.Contains(ctx, sessionID, models.SideFront, front)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check front fingerprint")
	}
	known.BackIsKnownFailure, err = t.store.Contains(ctx, sessionID, models.SideBack, back)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check back fingerprint")
	}
	return known, nil
}

// Package ports defines shared interfaces for the verify module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
package ports

import (
	"context"
	"time"

	"docauth/internal/verify/models"
)

// ThrottleStore manages attempt counters and subject lockouts. All methods
// must be safe for concurrent use; Increment must be atomic so two racing
// attempts cannot both observe a count under the ceiling when only one
// should have passed.
type ThrottleStore interface {
	// Increment adds one attempt to the counter for key within the current
	// window and returns the updated count. A fresh window starts when the
	// prior one has expired.
	Increment(ctx context.Context, key string, window time.Duration) (int, error)

	// Count returns the current attempt count without incrementing.
	Count(ctx context.Context, key string) (int, error)

	// Lock hard-locks a key until the given time.
	Lock(ctx context.Context, key string, until time.Time) error

	// LockedUntil returns the active lock expiry, or nil when not locked.
	LockedUntil(ctx context.Context, key string) (*time.Time, error)

	// Reset clears the counter and lock for a key.
	Reset(ctx context.Context, key string) error
}

// DedupStore persists fingerprints of images that failed verification,
// scoped to a capture session and side.
type DedupStore interface {
	// Add records a failed fingerprint. Records expire with the session.
	Add(ctx context.Context, sessionID string, side models.ImageSide, fp models.Fingerprint, ttl time.Duration) error

	// Contains reports whether the fingerprint was previously recorded.
	Contains(ctx context.Context, sessionID string, side models.ImageSide, fp models.Fingerprint) (bool, error)
}

// SessionResolver resolves an opaque capture session token. An expired or
// unknown token resolves to a sentinel error, never to a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.CaptureSession, error)

	// StoreResult persists the outcome of a completed attempt against the
	// session for later retrieval.
	StoreResult(ctx context.Context, token string, outcome *models.NormalizedOutcome) error
}

// ImageArchiver is the encrypted-storage collaborator. It receives the image
// pair plus the extracted personal record, and only for an attempt that
// passed verification; the core never retains the returned key.
type ImageArchiver interface {
	Archive(ctx context.Context, front, back *models.Image, record *models.PIIRecord) (*models.ArchivedImages, error)
}

// FunnelRecorder is the cost/funnel accounting collaborator. Fire-and-forget
// from the core's perspective: implementations must not block the attempt and
// must swallow their own errors.
type FunnelRecorder interface {
	Record(ctx context.Context, subject, step, outcome string)
}

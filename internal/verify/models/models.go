package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageSide identifies one captured image within a submission attempt.
type ImageSide string

const (
	SideFront  ImageSide = "front"
	SideBack   ImageSide = "back"
	SideSelfie ImageSide = "selfie"
)

// IsValid checks if the side is one of the supported enum values.
func (s ImageSide) IsValid() bool {
	switch s {
	case SideFront, SideBack, SideSelfie:
		return true
	}
	return false
}

// ImageSource records how the user produced the image. Native capture and
// file upload have different fraud profiles, so the vendor receives the
// classification as submission metadata.
type ImageSource string

const (
	SourceCamera  ImageSource = "camera"
	SourceUpload  ImageSource = "upload"
	SourceUnknown ImageSource = "unknown"
)

// AttemptCategory is a rate-limit bucket key, distinct from other throttled
// actions in the wider system.
type AttemptCategory string

const (
	CategoryDocAuth      AttemptCategory = "doc_auth"
	CategorySelfieVerify AttemptCategory = "selfie_verify"
)

// Fingerprint is a deterministic content digest of one image, used for
// dedup tracking and telemetry correlation, never for authentication.
type Fingerprint string

// IsZero reports whether no fingerprint has been computed.
func (f Fingerprint) IsZero() bool { return f == "" }

// Image holds one decoded image within an attempt.
type Image struct {
	Bytes       []byte
	ContentType string
}

// Attempt is the ephemeral record of one submission: decoded images per side,
// a correlation token for vendor telemetry, and the detected image source.
// It is created at intake and discarded once the orchestrator emits its
// outcome; it is never persisted verbatim.
type Attempt struct {
	CorrelationID uuid.UUID
	Images        map[ImageSide]*Image
	Source        ImageSource
	CreatedAt     time.Time

	// fingerprints are computed lazily and cached so dedup bookkeeping can
	// use them even when the vendor call itself fails.
	fingerprints map[ImageSide]Fingerprint
}

// NewAttempt builds an attempt with a fresh correlation token.
func NewAttempt(source ImageSource, now time.Time) *Attempt {
	return &Attempt{
		CorrelationID: uuid.New(),
		Images:        make(map[ImageSide]*Image),
		Source:        source,
		CreatedAt:     now,
		fingerprints:  make(map[ImageSide]Fingerprint),
	}
}

// Image returns the image for a side, or nil when absent.
func (a *Attempt) Image(side ImageSide) *Image {
	return a.Images[side]
}

// CachedFingerprint returns the memoized fingerprint for a side, if computed.
func (a *Attempt) CachedFingerprint(side ImageSide) (Fingerprint, bool) {
	fp, ok := a.fingerprints[side]
	return fp, ok
}

// CacheFingerprint memoizes a computed fingerprint for a side.
func (a *Attempt) CacheFingerprint(side ImageSide, fp Fingerprint) {
	if a.fingerprints == nil {
		a.fingerprints = make(map[ImageSide]Fingerprint)
	}
	a.fingerprints[side] = fp
}

// Package config holds verification domain configuration: image-quality
// thresholds, rate-limit ceilings, lockout windows, and feature flags.
// Resolved once per process start, never per attempt.
package config

import "time"

// Quality holds image-quality acceptance thresholds. Vendor-reported metrics
// below these produce per-side content errors.
type Quality struct {
	MinSharpness float64
	MaxGlare     float64
	MinDPI       int
}

// Throttle holds the per-attempt counter and the stricter lockout settings.
type Throttle struct {
	// MaxAttempts is the per-window ceiling for one (subject, category) pair.
	MaxAttempts int
	// Window bounds the attempt counter.
	Window time.Duration

	// LockoutThreshold is the number of attempts past the ceiling that
	// triggers a hard lockout of the subject.
	LockoutThreshold int
	// LockoutDuration is how long a hard lockout lasts.
	LockoutDuration time.Duration
}

// Features holds feature flags affecting pipeline behavior.
type Features struct {
	// TrackFailedImages enables fingerprint dedup bookkeeping for images
	// that failed verification.
	TrackFailedImages bool
	// RequireSelfie makes biometric comparison mandatory for this flow.
	RequireSelfie bool
}

// Config is the full verification domain configuration.
type Config struct {
	Quality  Quality
	Throttle Throttle
	Features Features

	// SessionTTL is the capture session lifetime; dedup records share it.
	SessionTTL time.Duration

	// ExpirationBypassDate, when non-nil, names one document expiration date
	// that is accepted regardless of the current time. This is a legacy
	// test-fixture accommodation kept deliberately separate from the general
	// expiration rule; leave nil to disable.
	ExpirationBypassDate *time.Time
}

// Default returns production defaults.
func Default() Config {
	return Config{
		Quality: Quality{
			MinSharpness: 40,
			MaxGlare:     50,
			MinDPI:       150,
		},
		Throttle: Throttle{
			MaxAttempts:      5,
			Window:           6 * time.Hour,
			LockoutThreshold: 3,
			LockoutDuration:  24 * time.Hour,
		},
		Features: Features{
			TrackFailedImages: true,
			RequireSelfie:     false,
		},
		SessionTTL: 30 * time.Minute,
	}
}

// TestDefaults returns defaults suitable for unit tests: short windows and the
// legacy expiration bypass enabled on its historical pinned date.
func TestDefaults() Config {
	cfg := Default()
	cfg.Throttle.Window = time.Minute
	cfg.Throttle.LockoutDuration = time.Minute
	bypass := time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)
	cfg.ExpirationBypassDate = &bypass
	return cfg
}

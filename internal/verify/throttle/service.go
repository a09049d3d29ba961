// Package throttle decides whether a submission attempt is permitted. It
// combines a per-(subject, category) attempt counter with a stricter subject
// lockout that activates after repeated abuse.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docauth/internal/verify/config"
	"docauth/internal/verify/models"
	"docauth/internal/verify/ports"
	dErrors "docauth/pkg/domain-errors"
	"docauth/pkg/requestcontext"
)

// Store is an alias to the shared interface.
type Store = ports.ThrottleStore

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Attempts  int
	Remaining int

	// LockedOut reports that the subject is hard-locked, not merely over
	// the per-window ceiling.
	LockedOut bool
}

// Service enforces the attempt ceiling and lockout rules. The store provides
// atomicity; the service owns the policy.
type Service struct {
	store  Store
	cfg    config.Throttle
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a throttle service.
func New(store Store, cfg config.Throttle, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("throttle store is required")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("throttle ceiling must be positive")
	}

	svc := &Service{store: store, cfg: cfg}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckAndIncrement counts this attempt and decides whether it may proceed.
// The increment is unconditional: blocked attempts still count, so retries
// can never reset the window. Lockout state is consulted after counting and
// wins over the per-window decision.
func (s *Service) CheckAndIncrement(ctx context.Context, subject string, category models.AttemptCategory) (*Decision, error) {
	key := counterKey(subject, category)

	attempts, err := s.store.Increment(ctx, key, s.cfg.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count attempt")
	}

	decision := &Decision{
		Attempts:  attempts,
		Remaining: max(0, s.cfg.MaxAttempts-attempts),
		Allowed:   attempts <= s.cfg.MaxAttempts,
	}

	lockedUntil, err := s.store.LockedUntil(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read lockout")
	}
	if lockedUntil != nil {
		decision.Allowed = false
		decision.LockedOut = true
		return decision, nil
	}

	// Repeated attempts past the ceiling escalate to a hard lockout.
	if !decision.Allowed && attempts >= s.cfg.MaxAttempts+s.cfg.LockoutThreshold {
		until := requestcontext.Now(ctx).Add(s.cfg.LockoutDuration)
		if err := s.store.Lock(ctx, subject, until); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set lockout")
		}
		decision.LockedOut = true
		if s.logger != nil {
			s.logger.WarnContext(ctx, "subject locked out",
				"category", category,
				"attempts", attempts,
				"locked_until", until,
			)
		}
	}

	return decision, nil
}

// IsLockedOut reports whether the subject is currently hard-locked, without
// counting an attempt.
func (s *Service) IsLockedOut(ctx context.Context, subject string) (bool, error) {
	until, err := s.store.LockedUntil(ctx, subject)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read lockout")
	}
	return until != nil, nil
}

// Remaining returns how many attempts the subject has left in the current
// window, without counting one.
func (s *Service) Remaining(ctx context.Context, subject string, category models.AttemptCategory) (int, error) {
	attempts, err := s.store.Count(ctx, counterKey(subject, category))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read attempt count")
	}
	return max(0, s.cfg.MaxAttempts-attempts), nil
}

func counterKey(subject string, category models.AttemptCategory) string {
	return fmt.Sprintf("%s:%s", category, subject)
}

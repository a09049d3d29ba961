package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docauth/internal/verify/config"
	"docauth/internal/verify/models"
	throttlestore "docauth/internal/verify/store/throttle"
)

// =============================================================================
// Throttle Service Test Suite
// =============================================================================
// Justification for unit tests: the ceiling, unconditional-increment, and
// lockout-escalation rules interact in ways that are hard to pin down through
// the orchestrator alone; this suite exercises them against a real store.

type ThrottleServiceSuite struct {
	suite.Suite
	store   *throttlestore.InMemoryStore
	service *Service
	cfg     config.Throttle
}

func TestThrottleServiceSuite(t *testing.T) {
	suite.Run(t, new(ThrottleServiceSuite))
}

func (s *ThrottleServiceSuite) SetupTest() {
	s.cfg = config.Throttle{
		MaxAttempts:      3,
		Window:           time.Minute,
		LockoutThreshold: 2,
		LockoutDuration:  time.Hour,
	}
	s.store = throttlestore.NewInMemory()

	var err error
	s.service, err = New(s.store, s.cfg)
	s.Require().NoError(err)
}

func (s *ThrottleServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.cfg)
		s.Error(err)
	})

	s.Run("non-positive ceiling returns error", func() {
		_, err := New(s.store, config.Throttle{MaxAttempts: 0})
		s.Error(err)
	})
}

func (s *ThrottleServiceSuite) TestAllowsUpToCeiling() {
	ctx := context.Background()

	for i := 1; i <= s.cfg.MaxAttempts; i++ {
		decision, err := s.service.CheckAndIncrement(ctx, "subject", models.CategoryDocAuth)
		s.Require().NoError(err)
		s.True(decision.Allowed, "attempt %d should be allowed", i)
		s.Equal(i, decision.Attempts)
		s.Equal(s.cfg.MaxAttempts-i, decision.Remaining)
	}

	decision, err := s.service.CheckAndIncrement(ctx, "subject", models.CategoryDocAuth)
	s.Require().NoError(err)
	s.False(decision.Allowed)
	s.Equal(0, decision.Remaining)
}

func (s *ThrottleServiceSuite) TestBlockedAttemptsStillCount() {
	ctx := context.Background()

	var last *Decision
	for range s.cfg.MaxAttempts + 1 {
		var err error
		last, err = s.service.CheckAndIncrement(ctx, "subject", models.CategoryDocAuth)
		s.Require().NoError(err)
	}
	s.False(last.Allowed)
	s.Equal(s.cfg.MaxAttempts+1, last.Attempts, "blocked attempt must still increment")
}

func (s *ThrottleServiceSuite) TestCategoriesAreIndependentBuckets() {
	ctx := context.Background()

	for range s.cfg.MaxAttempts + 1 {
		_, err := s.service.CheckAndIncrement(ctx, "subject", models.CategoryDocAuth)
		s.Require().NoError(err)
	}

	decision, err := s.service.CheckAndIncrement(ctx, "subject", models.CategorySelfieVerify)
	s.Require().NoError(err)
	s.True(decision.Allowed, "a different category must have its own counter")
}

func (s *ThrottleServiceSuite) TestLockoutEscalation() {
	ctx := context.Background()

	// Burn through the ceiling plus the lockout threshold.
	var last *Decision
	for range s.cfg.MaxAttempts + s.cfg.LockoutThreshold {
		var err error
		last, err = s.service.CheckAndIncrement(ctx, "abuser", models.CategoryDocAuth)
		s.Require().NoError(err)
	}
	s.True(last.LockedOut, "persistent abuse must escalate to a hard lockout")

	locked, err := s.service.IsLockedOut(ctx, "abuser")
	s.Require().NoError(err)
	s.True(locked)

	// The lockout applies to the subject, not just the original category.
	decision, err := s.service.CheckAndIncrement(ctx, "abuser", models.CategorySelfieVerify)
	s.Require().NoError(err)
	s.False(decision.Allowed)
	s.True(decision.LockedOut)
}

func (s *ThrottleServiceSuite) TestRemainingDoesNotIncrement() {
	ctx := context.Background()

	_, err := s.service.CheckAndIncrement(ctx, "subject", models.CategoryDocAuth)
	s.Require().NoError(err)

	for range 3 {
		remaining, err := s.service.Remaining(ctx, "subject", models.CategoryDocAuth)
		s.Require().NoError(err)
		s.Equal(s.cfg.MaxAttempts-1, remaining)
	}
}

//go:build integration

package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docauth/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.Pool)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresStoreSuite) TestIncrementCountsWithinWindow() {
	for want := 1; want <= 3; want++ {
		count, err := s.store.Increment(s.ctx, "subject-1", time.Minute)
		s.Require().NoError(err)
		s.Equal(want, count)
	}

	count, err := s.store.Count(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *PostgresStoreSuite) TestExpiredWindowRestartsAtOne() {
	_, err := s.store.Increment(s.ctx, "subject-1", 100*time.Millisecond)
	s.Require().NoError(err)

	time.Sleep(200 * time.Millisecond)

	count, err := s.store.Count(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Zero(count)

	count, err = s.store.Increment(s.ctx, "subject-1", time.Minute)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// Racing increments must never lose an attempt: the upsert is the atomicity
// boundary, so n concurrent calls yield a final count of exactly n.
func (s *PostgresStoreSuite) TestConcurrentIncrementsNeverLoseAttempts() {
	const attempts = 20

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Increment(s.ctx, "subject-1", time.Minute)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	count, err := s.store.Count(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Equal(attempts, count)
}

func (s *PostgresStoreSuite) TestLockRoundTrip() {
	until := time.Now().Add(time.Hour).UTC()
	s.Require().NoError(s.store.Lock(s.ctx, "subject-1", until))

	got, err := s.store.LockedUntil(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.WithinDuration(until, *got, time.Second)
}

func (s *PostgresStoreSuite) TestLockOverwriteExtends() {
	s.Require().NoError(s.store.Lock(s.ctx, "subject-1", time.Now().Add(time.Minute)))
	later := time.Now().Add(time.Hour).UTC()
	s.Require().NoError(s.store.Lock(s.ctx, "subject-1", later))

	got, err := s.store.LockedUntil(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.WithinDuration(later, *got, time.Second)
}

func (s *PostgresStoreSuite) TestPastLockReadsAsUnlocked() {
	s.Require().NoError(s.store.Lock(s.ctx, "subject-1", time.Now().Add(-time.Minute)))

	got, err := s.store.LockedUntil(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *PostgresStoreSuite) TestResetClearsCounterAndLock() {
	_, err := s.store.Increment(s.ctx, "subject-1", time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Lock(s.ctx, "subject-1", time.Now().Add(time.Hour)))

	s.Require().NoError(s.store.Reset(s.ctx, "subject-1"))

	count, err := s.store.Count(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Zero(count)

	locked, err := s.store.LockedUntil(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.Nil(locked)
}

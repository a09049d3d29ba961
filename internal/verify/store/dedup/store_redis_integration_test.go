//go:build integration

package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docauth/internal/verify/models"
	"docauth/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedis(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) TestAddThenContains() {
	fp := models.Fingerprint("fp-front-1")
	s.Require().NoError(s.store.Add(s.ctx, "session-1", models.SideFront, fp, time.Minute))

	known, err := s.store.Contains(s.ctx, "session-1", models.SideFront, fp)
	s.Require().NoError(err)
	s.True(known)
}

func (s *RedisStoreSuite) TestSidesAndSessionsAreIsolated() {
	fp := models.Fingerprint("fp-1")
	s.Require().NoError(s.store.Add(s.ctx, "session-1", models.SideFront, fp, time.Minute))

	known, err := s.store.Contains(s.ctx, "session-1", models.SideBack, fp)
	s.Require().NoError(err)
	s.False(known)

	known, err = s.store.Contains(s.ctx, "session-2", models.SideFront, fp)
	s.Require().NoError(err)
	s.False(known)
}

func (s *RedisStoreSuite) TestFingerprintsAccumulate() {
	for _, fp := range []models.Fingerprint{"fp-1", "fp-2", "fp-3"} {
		s.Require().NoError(s.store.Add(s.ctx, "session-1", models.SideFront, fp, time.Minute))
	}

	for _, fp := range []models.Fingerprint{"fp-1", "fp-2", "fp-3"} {
		known, err := s.store.Contains(s.ctx, "session-1", models.SideFront, fp)
		s.Require().NoError(err)
		s.True(known, string(fp))
	}
}

func (s *RedisStoreSuite) TestRecordsExpireWithTheSession() {
	fp := models.Fingerprint("fp-1")
	s.Require().NoError(s.store.Add(s.ctx, "session-1", models.SideFront, fp, 100*time.Millisecond))

	time.Sleep(200 * time.Millisecond)

	known, err := s.store.Contains(s.ctx, "session-1", models.SideFront, fp)
	s.Require().NoError(err)
	s.False(known)
}

func (s *RedisStoreSuite) TestLaterWriteRefreshesExpiry() {
	first := models.Fingerprint("fp-1")
	s.Require().NoError(s.store.Add(s.ctx, "session-1", models.SideFront, first, 150*time.Millisecond))

	time.Sleep(100 * time.Millisecond)
	s.Require().NoError(s.store.Add(s.ctx, "session-1", models.SideFront, models.Fingerprint("fp-2"), 400*time.Millisecond))

	// Past the first TTL but inside the refreshed one: both survive.
	time.Sleep(100 * time.Millisecond)

	known, err := s.store.Contains(s.ctx, "session-1", models.SideFront, first)
	s.Require().NoError(err)
	s.True(known)
}

func (s *RedisStoreSuite) TestZeroFingerprintIsIgnored() {
	var zero models.Fingerprint
	s.Require().NoError(s.store.Add(s.ctx, "session-1", models.SideFront, zero, time.Minute))

	known, err := s.store.Contains(s.ctx, "session-1", models.SideFront, zero)
	s.Require().NoError(err)
	s.False(known)
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docauth/internal/verify/models"
	"docauth/pkg/platform/sentinel"
	"docauth/pkg/requestcontext"
)

const testSigningKey = "test-session-signing-key-0123456789"

type ServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	var err error
	s.svc, err = New(testSigningKey, 30*time.Minute, NewInMemoryResults())
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestNewValidation() {
	_, err := New("", time.Minute, nil)
	s.Error(err, "empty signing key must be rejected")

	_, err = New(testSigningKey, 0, nil)
	s.Error(err, "non-positive ttl must be rejected")
}

func (s *ServiceSuite) TestMintAndResolve() {
	token, err := s.svc.Mint(s.ctx, "subject-1")
	s.Require().NoError(err)
	s.NotEmpty(token)

	sess, err := s.svc.Resolve(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("subject-1", sess.Subject)
	s.NotEmpty(sess.ID)
	s.False(sess.ExpiredAt(time.Now()))
	s.Nil(sess.PriorOutcome)
}

func (s *ServiceSuite) TestDistinctSessionsGetDistinctIDs() {
	first, err := s.svc.Mint(s.ctx, "subject-1")
	s.Require().NoError(err)
	second, err := s.svc.Mint(s.ctx, "subject-1")
	s.Require().NoError(err)

	sessA, err := s.svc.Resolve(s.ctx, first)
	s.Require().NoError(err)
	sessB, err := s.svc.Resolve(s.ctx, second)
	s.Require().NoError(err)
	s.NotEqual(sessA.ID, sessB.ID)
}

func (s *ServiceSuite) TestExpiredTokenResolvesToSentinel() {
	// Mint against a clock far enough in the past that the token is
	// already expired at parse time.
	past := requestcontext.WithTime(s.ctx, time.Now().Add(-2*time.Hour))
	token, err := s.svc.Mint(past, "subject-1")
	s.Require().NoError(err)

	_, err = s.svc.Resolve(s.ctx, token)
	s.ErrorIs(err, sentinel.ErrExpired)
}

func (s *ServiceSuite) TestGarbageTokenResolvesToNotFound() {
	for _, token := range []string{"", "not-a-token", "aaaa.bbbb.cccc"} {
		_, err := s.svc.Resolve(s.ctx, token)
		s.ErrorIs(err, sentinel.ErrNotFound)
	}
}

func (s *ServiceSuite) TestTokenSignedWithOtherKeyIsRejected() {
	other, err := New("a-completely-different-signing-key", time.Minute, nil)
	s.Require().NoError(err)

	token, err := other.Mint(s.ctx, "subject-1")
	s.Require().NoError(err)

	_, err = s.svc.Resolve(s.ctx, token)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestStoreAndResolvePriorOutcome() {
	token, err := s.svc.Mint(s.ctx, "subject-1")
	s.Require().NoError(err)

	outcome := &models.NormalizedOutcome{
		Success: false,
		Errors:  models.FieldErrors{models.FieldFront: {models.ErrNotAFile}},
	}
	s.Require().NoError(s.svc.StoreResult(s.ctx, token, outcome))

	sess, err := s.svc.Resolve(s.ctx, token)
	s.Require().NoError(err)
	s.Require().NotNil(sess.PriorOutcome)
	s.False(sess.PriorOutcome.Success)
	s.Equal(outcome.Errors, sess.PriorOutcome.Errors)
}

func (s *ServiceSuite) TestStoreResultOnExpiredToken() {
	past := requestcontext.WithTime(s.ctx, time.Now().Add(-2*time.Hour))
	token, err := s.svc.Mint(past, "subject-1")
	s.Require().NoError(err)

	err = s.svc.StoreResult(s.ctx, token, &models.NormalizedOutcome{Success: true})
	s.ErrorIs(err, sentinel.ErrExpired)
}

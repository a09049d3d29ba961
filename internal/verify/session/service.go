// Package session mints and resolves document capture session tokens. A
// token is a signed claim that one subject may run verification attempts
// until the session expires; results are stored against the session so a
// returning client can read the prior outcome without resubmitting.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"docauth/internal/verify/models"
	"docauth/pkg/platform/sentinel"
	"docauth/pkg/requestcontext"
)

// ResultStore persists the normalized outcome of a session's latest attempt.
type ResultStore interface {
	Save(ctx context.Context, sessionID string, outcome *models.NormalizedOutcome, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (*models.NormalizedOutcome, error)
}

// Claims are the capture session token claims.
type Claims struct {
	jwt.RegisteredClaims
}

// Service implements ports.SessionResolver over HS256 tokens.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	results    ResultStore
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a session service. The result store may be nil, in which case
// prior outcomes are never resolved and StoreResult is a no-op.
func New(signingKey string, ttl time.Duration, results ResultStore, opts ...Option) (*Service, error) {
	if signingKey == "" {
		return nil, errors.New("session signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	svc := &Service{signingKey: []byte(signingKey), ttl: ttl, results: results}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Mint issues a new capture session token for a subject.
func (s *Service) Mint(ctx context.Context, subject string) (string, error) {
	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Resolve implements ports.SessionResolver. An expired token resolves to
// sentinel.ErrExpired; anything else unverifiable to sentinel.ErrNotFound.
func (s *Service) Resolve(ctx context.Context, token string) (*models.CaptureSession, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	sess := &models.CaptureSession{
		ID:        claims.ID,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if s.results != nil {
		prior, err := s.results.Load(ctx, sess.ID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, fmt.Errorf("load prior outcome: %w", err)
		}
		sess.PriorOutcome = prior
	}
	return sess, nil
}

// StoreResult implements ports.SessionResolver. The result lives as long as
// the session token itself.
func (s *Service) StoreResult(ctx context.Context, token string, outcome *models.NormalizedOutcome) error {
	if s.results == nil {
		return nil
	}
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	if err := s.results.Save(ctx, claims.ID, outcome, ttl); err != nil {
		return fmt.Errorf("store session result: %w", err)
	}
	return nil
}

func (s *Service) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, sentinel.ErrExpired
		}
		return nil, sentinel.ErrNotFound
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, sentinel.ErrNotFound
	}
	return claims, nil
}

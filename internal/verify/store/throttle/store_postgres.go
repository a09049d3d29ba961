package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists throttle counters in PostgreSQL.
// This store is pure I/O—ceiling and lockout decisions belong in the service.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed throttle store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Increment implements ports.ThrottleStore. The upsert resets expired
// windows and increments live ones in one statement, so the check and the
// increment are atomic at the database.
func (s *PostgresStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	query := `
		INSERT INTO attempt_counters (counter_key, attempt_count, window_expires_at, last_attempt_at)
		VALUES ($1, 1, now() + $2, now())
		ON CONFLICT (counter_key) DO UPDATE SET
			attempt_count = CASE
				WHEN attempt_counters.window_expires_at < now() THEN 1
				ELSE attempt_counters.attempt_count + 1
			END,
			window_expires_at = CASE
				WHEN attempt_counters.window_expires_at < now() THEN now() + $2
				ELSE attempt_counters.window_expires_at
			END,
			last_attempt_at = now()
		RETURNING attempt_count
	`
	var count int
	if err := s.pool.QueryRow(ctx, query, key, window).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment attempt counter: %w", err)
	}
	return count, nil
}

// Count implements ports.ThrottleStore.
func (s *PostgresStore) Count(ctx context.Context, key string) (int, error) {
	query := `
		SELECT attempt_count FROM attempt_counters
		WHERE counter_key = $1 AND window_expires_at >= now()
	`
	var count int
	err := s.pool.QueryRow(ctx, query, key).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get attempt counter: %w", err)
	}
	return count, nil
}

// Lock implements ports.ThrottleStore.
func (s *PostgresStore) Lock(ctx context.Context, key string, until time.Time) error {
	query := `
		INSERT INTO attempt_lockouts (lockout_key, locked_until)
		VALUES ($1, $2)
		ON CONFLICT (lockout_key) DO UPDATE SET locked_until = EXCLUDED.locked_until
	`
	if _, err := s.pool.Exec(ctx, query, key, until); err != nil {
		return fmt.Errorf("set lockout: %w", err)
	}
	return nil
}

// LockedUntil implements ports.ThrottleStore.
func (s *PostgresStore) LockedUntil(ctx context.Context, key string) (*time.Time, error) {
	query := `
		SELECT locked_until FROM attempt_lockouts
		WHERE lockout_key = $1 AND locked_until > now()
	`
	var until time.Time
	err := s.pool.QueryRow(ctx, query, key).Scan(&until)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lockout: %w", err)
	}
	return &until, nil
}

// Reset implements ports.ThrottleStore.
func (s *PostgresStore) Reset(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM attempt_counters WHERE counter_key = $1`, key); err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM attempt_lockouts WHERE lockout_key = $1`, key); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	return nil
}

package bucket

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"intake/internal/ratelimit/models"
	"intake/pkg/platform/tx"
	"intake/pkg/requestcontext"
)

// PostgresBucketStore persists sliding window events in rate_limit_events.
// Concurrent Allow calls for one key are serialized with a transaction-scoped
// advisory lock.
type PostgresBucketStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed bucket store.
func NewPostgres(db *sql.DB) *PostgresBucketStore {
	return &PostgresBucketStore{db: db}
}

// Allow checks if a request is allowed and records it when it is.
func (s *PostgresBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := requestcontext.Now(ctx)
	var result *models.RateLimitResult

	err := tx.Run(ctx, s.db, func(ctx context.Context, sqlTx *sql.Tx) error {
		if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock bucket: %w", err)
		}

		var count int
		var oldest sql.NullTime
		err := sqlTx.QueryRowContext(ctx, `
			SELECT COUNT(*), MIN(occurred_at)
			FROM rate_limit_events
			WHERE key = $1 AND occurred_at > $2
		`, key, now.Add(-window)).Scan(&count, &oldest)
		if err != nil {
			return fmt.Errorf("count bucket events: %w", err)
		}

		if count >= limit {
			resetAt := now.Add(window)
			if oldest.Valid {
				resetAt = oldest.Time.Add(window)
			}
			result = &models.RateLimitResult{
				Allowed:    false,
				Limit:      limit,
				Remaining:  0,
				ResetAt:    resetAt,
				RetryAfter: models.RetryAfterSeconds(resetAt.Sub(now)),
			}
			return nil
		}

		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO rate_limit_events (key, occurred_at, expires_at)
			VALUES ($1, $2, $3)
		`, key, now, now.Add(window)); err != nil {
			return fmt.Errorf("insert bucket event: %w", err)
		}

		resetAt := now.Add(window)
		if oldest.Valid {
			resetAt = oldest.Time.Add(window)
		}
		result = &models.RateLimitResult{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - count - 1,
			ResetAt:   resetAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Sweep deletes events whose window has passed.
func (s *PostgresBucketStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep bucket events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep bucket events: %w", err)
	}
	return int(n), nil
}

package cooldown

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"intake/internal/ratelimit/models"
	"intake/pkg/requestcontext"
)

// PostgresCooldownStore persists cooldown slots in email_cooldowns.
type PostgresCooldownStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed cooldown store.
func NewPostgres(db *sql.DB) *PostgresCooldownStore {
	return &PostgresCooldownStore{db: db}
}

// Acquire takes the slot when absent or expired. The upsert only overwrites an
// expired row, so a held slot returns no row and is never extended.
func (s *PostgresCooldownStore) Acquire(ctx context.Context, key string, ttl time.Duration) (*models.CooldownResult, error) {
	now := requestcontext.Now(ctx)
	expiresAt := now.Add(ttl)

	var stored time.Time
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO email_cooldowns (email, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET expires_at = EXCLUDED.expires_at
		WHERE email_cooldowns.expires_at <= $3
		RETURNING expires_at
	`, key, expiresAt, now).Scan(&stored)
	if err == nil {
		return &models.CooldownResult{Allowed: true, ExpiresAt: stored}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("acquire cooldown: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT expires_at FROM email_cooldowns WHERE email = $1`, key).Scan(&stored)
	if err != nil {
		return nil, fmt.Errorf("read cooldown: %w", err)
	}
	return &models.CooldownResult{
		Allowed:   false,
		ExpiresAt: stored,
		WaitTime:  stored.Sub(now),
	}, nil
}

// Sweep deletes expired cooldown rows.
func (s *PostgresCooldownStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM email_cooldowns WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep cooldowns: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep cooldowns: %w", err)
	}
	return int(n), nil
}

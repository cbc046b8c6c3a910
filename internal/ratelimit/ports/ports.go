// Package ports defines the store interfaces consumed by the ratelimit service.
package ports

import (
	"context"
	"time"

	"intake/internal/ratelimit/models"
)

// BucketStore manages sliding window rate limit counters.
type BucketStore interface {
	// Allow checks if a single request is allowed and records it if so.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)

	Sweep(ctx context.Context, now time.Time) (int, error)
}

// CooldownStore holds one expiring slot per key.
type CooldownStore interface {
	// Acquire takes the slot for ttl when free. A held slot is reported without
	// being extended.
	Acquire(ctx context.Context, key string, ttl time.Duration) (*models.CooldownResult, error)

	Sweep(ctx context.Context, now time.Time) (int, error)
}

// SuspiciousStore counts failures per key inside a window anchored at the first failure.
type SuspiciousStore interface {
	// Record increments the counter and returns the new count.
	Record(ctx context.Context, key string, window time.Duration) (int, error)

	// Count returns the live count, dropping a lapsed record.
	Count(ctx context.Context, key string, window time.Duration) (int, error)

	Sweep(ctx context.Context, now time.Time) (int, error)
}

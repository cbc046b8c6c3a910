package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"intake/internal/ratelimit/models"
	"intake/pkg/requestcontext"
)

const keyPrefix = "cooldown:"

// RedisCooldownStore holds each slot as a SET NX key with a TTL.
type RedisCooldownStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed cooldown store.
func NewRedis(client redis.UniversalClient) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

// Acquire takes the slot for ttl when free, otherwise reports the remaining TTL.
func (s *RedisCooldownStore) Acquire(ctx context.Context, key string, ttl time.Duration) (*models.CooldownResult, error) {
	now := requestcontext.Now(ctx)
	redisKey := keyPrefix + key

	ok, err := s.client.SetNX(ctx, redisKey, now.UnixMilli(), ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire cooldown: %w", err)
	}
	if ok {
		return &models.CooldownResult{Allowed: true, ExpiresAt: now.Add(ttl)}, nil
	}

	remaining, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read cooldown ttl: %w", err)
	}
	// -2 (gone) and -1 (no ttl) both mean the slot is effectively free on the next try
	if remaining < 0 {
		remaining = time.Second
	}
	return &models.CooldownResult{
		Allowed:   false,
		ExpiresAt: now.Add(remaining),
		WaitTime:  remaining,
	}, nil
}

// Sweep is a no-op: Redis expires slots on its own.
func (s *RedisCooldownStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

package suspicious

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps a counter per key whose expiry is set by the first increment.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed tracker store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Record increments the counter. EXPIRE NX anchors the window at the first failure.
func (s *RedisStore) Record(ctx context.Context, key string, window time.Duration) (int, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("record suspicious activity: %w", err)
	}
	return int(incr.Val()), nil
}

// Count returns the live counter. Expired keys read as zero.
func (s *RedisStore) Count(ctx context.Context, key string, _ time.Duration) (int, error) {
	n, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read suspicious activity: %w", err)
	}
	return n, nil
}

// Sweep is a no-op: Redis expires counters on its own.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

package cooldown

import (
	"context"
	"sync"
	"time"

	"intake/internal/ratelimit/models"
	"intake/pkg/requestcontext"
)

// InMemoryCooldownStore keeps one expiring slot per key in process memory.
type InMemoryCooldownStore struct {
	mu    sync.Mutex
	slots map[string]time.Time
}

// NewInMemoryCooldownStore creates an empty cooldown store.
func NewInMemoryCooldownStore() *InMemoryCooldownStore {
	return &InMemoryCooldownStore{slots: make(map[string]time.Time)}
}

// Acquire takes the slot for ttl when free, otherwise reports the remaining wait.
func (s *InMemoryCooldownStore) Acquire(ctx context.Context, key string, ttl time.Duration) (*models.CooldownResult, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, ok := s.slots[key]; ok && now.Before(expiresAt) {
		return &models.CooldownResult{
			Allowed:   false,
			ExpiresAt: expiresAt,
			WaitTime:  expiresAt.Sub(now),
		}, nil
	}

	expiresAt := now.Add(ttl)
	s.slots[key] = expiresAt
	return &models.CooldownResult{Allowed: true, ExpiresAt: expiresAt}, nil
}

// Sweep removes expired slots.
func (s *InMemoryCooldownStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, expiresAt := range s.slots {
		if !now.Before(expiresAt) {
			delete(s.slots, key)
			removed++
		}
	}
	return removed, nil
}

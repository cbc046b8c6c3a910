package suspicious

import (
	"context"
	"sync"
	"time"

	"intake/internal/ratelimit/models"
	"intake/pkg/requestcontext"
)

// InMemoryStore counts failures per key in process memory.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*entry
}

type entry struct {
	models.SuspiciousRecord
	window time.Duration
}

// NewInMemoryStore creates an empty tracker store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*entry)}
}

// Record increments the counter. A missing or lapsed record restarts at 1.
func (s *InMemoryStore) Record(ctx context.Context, key string, window time.Duration) (int, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.records[key]
	if e == nil || e.Lapsed(now, window) {
		s.records[key] = &entry{
			SuspiciousRecord: models.SuspiciousRecord{Count: 1, WindowStart: now},
			window:           window,
		}
		return 1, nil
	}
	e.Count++
	return e.Count, nil
}

// Count returns the live counter, dropping a lapsed record.
func (s *InMemoryStore) Count(ctx context.Context, key string, window time.Duration) (int, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.records[key]
	if e == nil {
		return 0, nil
	}
	if e.Lapsed(now, window) {
		delete(s.records, key)
		return 0, nil
	}
	return e.Count, nil
}

// Sweep removes lapsed records.
func (s *InMemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.records {
		if e.Lapsed(now, e.window) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

package memory

import (
	"context"
	"sync"

	audit "intake/pkg/platform/audit"
)

const defaultCapacity = 10000

// RingStore is a bounded, thread-safe audit store. When full, the oldest
// events are dropped to make room for new ones.
type RingStore struct {
	mu       sync.Mutex
	events   []audit.Event
	head     int // next write position
	count    int
	capacity int
	dropped  int64
}

// NewRingStore creates a ring store with the given capacity.
func NewRingStore(capacity int) *RingStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &RingStore{
		events:   make([]audit.Event, capacity),
		capacity: capacity,
	}
}

// Append adds an event, dropping the oldest if necessary.
func (s *RingStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == s.capacity {
		s.dropped++
	} else {
		s.count++
	}
	s.events[s.head] = event
	s.head = (s.head + 1) % s.capacity
	return nil
}

// ListRecent returns up to limit events, most recent first.
func (s *RingStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > s.count {
		limit = s.count
	}
	out := make([]audit.Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.head - i + s.capacity) % s.capacity
		out = append(out, s.events[idx])
	}
	return out, nil
}

// Len returns the number of retained events.
func (s *RingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dropped returns the total number of evicted events.
func (s *RingStore) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

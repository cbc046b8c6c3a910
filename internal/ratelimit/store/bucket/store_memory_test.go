package bucket

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"intake/internal/ratelimit/models"
	"intake/pkg/requestcontext"
)

const (
	testLimit  = 5
	testWindow = time.Hour
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	start time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
	s.start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryBucketStoreSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.start.Add(offset))
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.at(0), "first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.start.Add(testWindow), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.RateLimitResult
		var err error
		for i := range testLimit {
			result, err = s.store.Allow(s.at(time.Duration(i)*time.Minute), "limit", testLimit, testWindow)
			s.Require().NoError(err)
			s.True(result.Allowed)
		}
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied with positive wait", func() {
		for range testLimit {
			_, err := s.store.Allow(s.at(0), "over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.at(15*time.Minute), "over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(s.start.Add(testWindow), result.ResetAt)
		s.Equal(int((45 * time.Minute).Seconds()), result.RetryAfter)
	})

	s.Run("denied requests are not recorded", func() {
		_, err := s.store.Allow(s.at(0), "norecord", testLimit, testWindow)
		s.Require().NoError(err)
		for range testLimit - 1 {
			_, err := s.store.Allow(s.at(30*time.Minute), "norecord", testLimit, testWindow)
			s.Require().NoError(err)
		}
		for range 3 {
			result, err := s.store.Allow(s.at(40*time.Minute), "norecord", testLimit, testWindow)
			s.Require().NoError(err)
			s.False(result.Allowed)
		}

		// Only the first request has aged out; the denied ones never took a slot.
		result, err := s.store.Allow(s.at(testWindow+time.Second), "norecord", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("after window expires requests allowed", func() {
		for range testLimit {
			_, err := s.store.Allow(s.at(0), "reset", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.at(testWindow+time.Second), "reset", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestSweep() {
	_, err := s.store.Allow(s.at(0), "old", testLimit, testWindow)
	s.Require().NoError(err)
	_, err = s.store.Allow(s.at(50*time.Minute), "fresh", testLimit, testWindow)
	s.Require().NoError(err)

	removed, err := s.store.Sweep(context.Background(), s.start.Add(testWindow+time.Minute))
	s.Require().NoError(err)
	s.Equal(1, removed)

	result, err := s.store.Allow(s.at(testWindow+time.Minute), "fresh", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-2, result.Remaining, "the fresh bucket survives the sweep")
}

func (s *InMemoryBucketStoreSuite) TestConcurrentAllow() {
	const goroutines = 50
	var wg sync.WaitGroup
	var allowed atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.at(0), "concurrent", testLimit, testWindow)
			if err == nil && result.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(testLimit), allowed.Load())
}

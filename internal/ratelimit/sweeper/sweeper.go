// Package sweeper runs periodic purges of expired throttle state.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Target purges entries that expired at or before now.
type Target interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Sweeper schedules Target.Sweep on a cron spec such as "@every 5m".
type Sweeper struct {
	cron    *cron.Cron
	target  Target
	logger  *slog.Logger
	timeout time.Duration
}

// New validates the schedule and registers the sweep job.
func New(schedule string, target Target, logger *slog.Logger) (*Sweeper, error) {
	if target == nil {
		return nil, errors.New("sweep target is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		cron:    cron.New(),
		target:  target,
		logger:  logger,
		timeout: 30 * time.Second,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.target.Sweep(ctx, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "throttle sweep failed", "error", err, "removed", removed)
		return
	}
	s.logger.DebugContext(ctx, "throttle sweep complete", "removed", removed)
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for a
// running sweep to finish.
func (s *Sweeper) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// Package scheduler drives the time-based booking transitions: requested
// bookings whose window has begun become active, and active bookings whose
// window has elapsed become completed. Read paths present effective statuses
// on their own, so the sweep is about converging the stored ledger, not
// about correctness of availability sums — a time-expired booking can never
// overlap a future window regardless of its stored status.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// sweeper is the slice of the booking service the scheduler needs.
type sweeper interface {
	ActivateDue(ctx context.Context) (int64, error)
	CompleteElapsed(ctx context.Context) (int64, error)
}

// Scheduler runs the status sweep at a fixed interval until its context is
// cancelled.
type Scheduler struct {
	bookings sweeper
	interval time.Duration
	log      *slog.Logger
}

// New constructs a Scheduler. interval should be generous — minutes, not
// seconds — since the sweep exists to converge stored statuses, not to serve
// reads.
func New(bookings sweeper, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{bookings: bookings, interval: interval, log: log}
}

// Run blocks, sweeping once immediately and then on every tick, until ctx is
// cancelled. Call it from its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("booking sweep started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("booking sweep stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep activates due bookings first, then completes elapsed ones, so a
// booking whose entire window passed between ticks still travels
// requested → active → completed rather than skipping an edge.
func (s *Scheduler) sweep(ctx context.Context) {
	activated, err := s.bookings.ActivateDue(ctx)
	if err != nil {
		s.log.Error("activating due bookings failed", "error", err)
		return
	}
	completed, err := s.bookings.CompleteElapsed(ctx)
	if err != nil {
		s.log.Error("completing elapsed bookings failed", "error", err)
		return
	}
	if activated > 0 || completed > 0 {
		s.log.Info("booking sweep applied transitions",
			"activated", activated,
			"completed", completed,
		)
	}
}

package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tbardin/equiprent/internal/scheduler"
)

type countingSweeper struct {
	activate int64
	complete int64
}

func (c *countingSweeper) ActivateDue(context.Context) (int64, error) {
	atomic.AddInt64(&c.activate, 1)
	return 1, nil
}

func (c *countingSweeper) CompleteElapsed(context.Context) (int64, error) {
	atomic.AddInt64(&c.complete, 1)
	return 0, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_SweepsImmediatelyAndOnTick(t *testing.T) {
	sw := &countingSweeper{}
	s := scheduler.New(sw, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	s.Run(ctx) // returns when ctx expires

	activations := atomic.LoadInt64(&sw.activate)
	assert.GreaterOrEqual(t, activations, int64(2), "expected the immediate sweep plus ticks")
	assert.Equal(t, activations, atomic.LoadInt64(&sw.complete),
		"every sweep runs both phases")
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	sw := &countingSweeper{}
	s := scheduler.New(sw, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}

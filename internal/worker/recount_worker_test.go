package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingRecounter struct {
	calls atomic.Int32
	err   error
}

func (c *countingRecounter) RecountAll(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestRecountWorkerRunsImmediatelyAndOnTick(t *testing.T) {
	rc := &countingRecounter{}
	w := NewRecountWorker(rc, slog.New(slog.DiscardHandler), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for rc.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least three passes, got %d", rc.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop")
	}
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	rc := &countingRecounter{err: errors.New("store down")}
	w := NewRecountWorker(rc, slog.New(slog.DiscardHandler), time.Minute)
	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	if rc.calls.Load() != 2 {
		t.Fatalf("expected two calls, got %d", rc.calls.Load())
	}
}

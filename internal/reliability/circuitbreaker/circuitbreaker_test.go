package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Hour)
	fail := func(context.Context) error { return errors.New("provider returned 500") }

	for i := 0; i < 2; i++ {
		if err := cb.Execute(context.Background(), fail); err == nil {
			t.Fatalf("expected provider error")
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open, got %s", cb.GetState())
	}
	called := false
	err := cb.Execute(context.Background(), func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Fatalf("open circuit should reject without calling, got %v", err)
	}
}

func TestHalfOpenProbeCloses(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Millisecond)
	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) { transitions = append(transitions, from.String()+">"+to.String()) })

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("down") })
	time.Sleep(5 * time.Millisecond)
	if err := cb.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after probe, got %s", cb.GetState())
	}
	want := []string{"closed>open", "open>half_open", "half_open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions: got %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions: got %v", transitions)
		}
	}
}

func TestCancelledCallDoesNotCount(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if cb.GetState() != StateClosed {
		t.Fatalf("cancellation should not trip the breaker")
	}
}

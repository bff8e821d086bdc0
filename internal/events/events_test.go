package events

import (
	"context"
	"testing"
	"time"
)

func TestLocalBusFansOut(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	if err := bus.Publish(context.Background(), Event{TenantID: "org-1", Collection: "goals", Action: ActionSaved}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, ch := range []<-chan Event{a, b} {
		select {
		case e := <-ch:
			if e.TenantID != "org-1" || e.At.IsZero() {
				t.Fatalf("unexpected event %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive event")
		}
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewLocalBus()
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	// Publishing after a subscriber left must not panic.
	_ = bus.Publish(context.Background(), Event{TenantID: "org-1"})
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewLocalBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = bus.Publish(context.Background(), Event{TenantID: "org-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publisher blocked on a full subscriber")
	}
}

func TestOverflowLeavesLostMarker(t *testing.T) {
	bus := NewLocalBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+1; i++ {
		_ = bus.Publish(context.Background(), Event{TenantID: "org-1"})
	}
	var lost bool
	for len(ch) > 0 {
		if e := <-ch; e.Action == ActionLost && e.Global() {
			lost = true
		}
	}
	if !lost {
		t.Fatalf("a full subscriber should receive a lost marker")
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	bus := NewLocalBus()
	ch, _ := bus.Subscribe()
	_ = bus.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	late, _ := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribing to a closed bus yields a closed channel")
	}
}

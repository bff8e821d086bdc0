// Package events carries change notifications between sessions of the same
// tenant, in-process or across instances.
package events

import (
	"context"
	"sync"
	"time"
)

// Action describes what happened to a record.
type Action string

const (
	ActionSaved    Action = "saved"
	ActionDeleted  Action = "deleted"
	ActionReplaced Action = "replaced"
	ActionReset    Action = "reset"
	// ActionLost tells a subscriber that some of its events were dropped.
	ActionLost Action = "lost"
)

// Event announces an acknowledged write.
type Event struct {
	TenantID   string    `json:"tenantId"`
	Collection string    `json:"collection"`
	Action     Action    `json:"action"`
	RecordID   string    `json:"recordId,omitempty"`
	Origin     string    `json:"origin,omitempty"` // principal key of the writer
	At         time.Time `json:"at"`
}

// Global reports whether e concerns every tenant.
func (e Event) Global() bool {
	return e.Action == ActionReset || e.Action == ActionLost
}

// Bus publishes events and fans them out to subscribers.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events and a cancel func that closes it.
	Subscribe() (<-chan Event, func())
	Close() error
}

const subscriberBuffer = 64

// LocalBus delivers events to subscribers in this process. Slow subscribers
// miss events rather than block publishers, and are told so by an
// ActionLost event in place of the oldest one they had queued.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	closed bool
}

// NewLocalBus returns an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: map[int]chan Event{}}
}

func (b *LocalBus) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.Deliver(e)
	return nil
}

// Deliver hands e to every subscriber without blocking.
func (b *LocalBus) Deliver(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- Event{Action: ActionLost, At: e.At}:
			default:
			}
		}
	}
}

func (b *LocalBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aryan0dhankhar/coachsync/internal/events"
)

// EventChannel is the Pub/Sub channel carrying change events.
const EventChannel = "coachsync:events"

// EventBus publishes change events through Redis so every instance, this one
// included, receives them from the subscription loop.
type EventBus struct {
	client *Client
	local  *events.LocalBus
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewEventBus subscribes to EventChannel and starts relaying messages to
// local subscribers.
func NewEventBus(ctx context.Context, client *Client) (*EventBus, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := client.Subscribe(ctx, EventChannel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", EventChannel, err)
	}

	b := &EventBus{
		client: client,
		local:  events.NewLocalBus(),
		logger: client.logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.relay(ctx, sub.Channel(), func() { _ = sub.Close() })
	return b, nil
}

func (b *EventBus) relay(ctx context.Context, msgs <-chan *redis.Message, closeSub func()) {
	defer close(b.done)
	defer closeSub()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			e, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				b.logger.Warn("dropping malformed event", slog.String("error", err.Error()))
				continue
			}
			b.local.Deliver(e)
		}
	}
}

// Publish sends e to every instance. When Redis is unreachable the event is
// still delivered locally and the error returned.
func (b *EventBus) Publish(ctx context.Context, e events.Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, EventChannel, payload); err != nil {
		b.local.Deliver(e)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *EventBus) Subscribe() (<-chan events.Event, func()) {
	return b.local.Subscribe()
}

// Close stops the relay and closes local subscriptions. The Redis client is
// owned by the caller.
func (b *EventBus) Close() error {
	b.once.Do(func() {
		b.cancel()
		<-b.done
		_ = b.local.Close()
	})
	return nil
}

func decodeEvent(payload []byte) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return events.Event{}, err
	}
	if e.TenantID == "" && !e.Global() {
		return events.Event{}, fmt.Errorf("event without tenant")
	}
	return e, nil
}

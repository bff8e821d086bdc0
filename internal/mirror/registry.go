package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/events"
	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/pkg/cache"
)

// DefaultTTL is how long an idle mirror is kept.
const DefaultTTL = 30 * time.Minute

// Registry hands out one mirror per principal and keeps mirrors of the same
// tenant coherent through the event bus.
type Registry struct {
	repos   *repository.Repositories
	bus     events.Bus
	logger  *slog.Logger
	ttl     time.Duration
	mirrors *cache.Cache[*Mirror]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates a registry. bus may be nil.
func NewRegistry(repos *repository.Repositories, bus events.Bus, ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		repos:   repos,
		bus:     bus,
		logger:  logger,
		ttl:     ttl,
		mirrors: cache.New[*Mirror](),
	}
}

// For returns p's mirror, refreshing it first when it was never loaded or
// another session changed the tenant's data.
func (r *Registry) For(ctx context.Context, p domain.Principal) (*Mirror, error) {
	key := p.Key()
	m, ok := r.mirrors.Get(key)
	if !ok {
		m = New(r.repos, r.bus, r.logger)
		r.mirrors.Set(key, m, r.ttl)
		metrics.SetActiveMirrors(r.count())
	} else {
		r.mirrors.Touch(key, r.ttl)
	}
	if !m.Loaded() || m.Stale() {
		if err := m.Refresh(ctx, p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Peek returns p's mirror without creating or refreshing it.
func (r *Registry) Peek(p domain.Principal) (*Mirror, bool) {
	return r.mirrors.Get(p.Key())
}

// Drop clears and forgets p's mirror, as on logout.
func (r *Registry) Drop(p domain.Principal) {
	if m, ok := r.mirrors.Get(p.Key()); ok {
		m.Clear()
	}
	r.mirrors.Delete(p.Key())
	metrics.SetActiveMirrors(r.count())
}

// Invalidate marks every mirror of tenantID stale. An empty tenantID marks
// all mirrors.
func (r *Registry) Invalidate(tenantID, except string) int {
	marked := 0
	r.mirrors.Range(func(key string, m *Mirror) bool {
		if key == except {
			return true
		}
		if tenantID == "" || m.TenantID() == tenantID {
			m.MarkStale()
			marked++
		}
		return true
	})
	return marked
}

// Start follows the event bus and sweeps idle mirrors until ctx ends or
// Close is called.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	var (
		ch    <-chan events.Event
		unsub = func() {}
	)
	if r.bus != nil {
		ch, unsub = r.bus.Subscribe()
	}

	go func() {
		defer close(r.done)
		defer unsub()
		ticker := time.NewTicker(r.ttl / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-ch:
				if !ok {
					ch = nil
					continue
				}
				r.apply(e)
			case <-ticker.C:
				if n := r.mirrors.Sweep(); n > 0 {
					r.logger.Debug("evicted idle mirrors", slog.Int("count", n))
				}
				metrics.SetActiveMirrors(r.count())
			}
		}
	}()
}

func (r *Registry) apply(e events.Event) {
	tenantID := e.TenantID
	if e.Global() {
		tenantID = ""
	}
	if n := r.Invalidate(tenantID, e.Origin); n > 0 {
		r.logger.Debug("marked mirrors stale",
			slog.String("tenant_id", e.TenantID),
			slog.String("collection", e.Collection),
			slog.Int("count", n),
		)
	}
}

// Close stops the background loop started by Start.
func (r *Registry) Close() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Registry) count() int {
	n := 0
	r.mirrors.Range(func(string, *Mirror) bool { n++; return true })
	return n
}

package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. Buckets idle for longer than
// staleAfter are dropped by a background sweep.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	perMinute  int
	staleAfter time.Duration
	cleanup    *time.Ticker
	done       chan struct{}
	stopOnce   sync.Once
	now        func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows perMinute requests per key with bursts up to perMinute.
func NewLimiter(perMinute int) *Limiter {
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		perMinute:  perMinute,
		staleAfter: 15 * time.Minute,
		cleanup:    time.NewTicker(5 * time.Minute),
		done:       make(chan struct{}),
		now:        time.Now,
	}
	go l.cleanupOldBuckets()
	return l
}

// Allow reports whether key may make another request. An empty key is
// never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	return l.take(key, l.perMinute)
}

// AllowStrict applies a separate, smaller per-minute budget, used for login
// attempts.
func (l *Limiter) AllowStrict(identifier string, perMinute int) bool {
	return l.take("strict:"+identifier, perMinute)
}

func (l *Limiter) take(key string, perMinute int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(time.Minute / time.Duration(max(perMinute, 1)))
		b = &bucket{limiter: rate.NewLimiter(every, max(perMinute, 1))}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	threshold := l.now().Add(-l.staleAfter)
	for key, b := range l.buckets {
		if b.lastSeen.Before(threshold) {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) cleanupOldBuckets() {
	for {
		select {
		case <-l.cleanup.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

// Stop ends the background sweep.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		l.cleanup.Stop()
		close(l.done)
	})
}

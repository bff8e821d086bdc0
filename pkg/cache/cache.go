package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry is a cached value with its expiry.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache is an in-memory map with per-entry TTL. Expired entries are invisible
// to Get and removed by Sweep.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]*Entry[V]
	now   func() time.Time
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{items: map[string]*Entry[V]{}, now: time.Now}
}

// Set stores a value with the given TTL.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &Entry[V]{Value: value, ExpiresAt: c.now().Add(ttl)}
}

// Get returns the value if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero V
	entry, ok := c.items[key]
	if !ok || c.now().After(entry.ExpiresAt) {
		return zero, false
	}
	return entry.Value, true
}

// Touch extends the TTL of a live entry.
func (c *Cache[V]) Touch(key string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok || c.now().After(entry.ExpiresAt) {
		return false
	}
	entry.ExpiresAt = c.now().Add(ttl)
	return true
}

// Delete removes a key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]*Entry[V]{}
}

// Invalidate removes all entries whose key starts with prefix.
func (c *Cache[V]) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Range calls fn for every live entry until fn returns false. fn must not
// call back into the cache.
func (c *Cache[V]) Range(fn func(key string, value V) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	for key, entry := range c.items {
		if now.After(entry.ExpiresAt) {
			continue
		}
		if !fn(key, entry.Value) {
			return
		}
	}
}

// Sweep drops expired entries and returns how many live entries remain.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.items {
		if now.After(entry.ExpiresAt) {
			delete(c.items, key)
		}
	}
	return len(c.items)
}

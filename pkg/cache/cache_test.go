package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("admin:admin", "state", time.Second)
	val, ok := c.Get("admin:admin")
	if !ok || val != "state" {
		t.Fatalf("expected state, got %v, exists=%v", val, ok)
	}
}

func TestExpirationAndSweep(t *testing.T) {
	c := New[int]()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("coach:c1", 1, time.Minute)
	c.Set("coach:c2", 2, time.Hour)

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("coach:c1"); ok {
		t.Fatalf("expected expired key to return false")
	}
	if left := c.Sweep(); left != 1 {
		t.Fatalf("expected 1 live entry after sweep, got %d", left)
	}
}

func TestTouchExtendsLifetime(t *testing.T) {
	c := New[int]()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("k", 1, time.Minute)

	now = now.Add(50 * time.Second)
	if !c.Touch("k", time.Minute) {
		t.Fatalf("touch on live key should succeed")
	}
	now = now.Add(50 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("touched key should still be live")
	}
}

func TestInvalidateAndRange(t *testing.T) {
	c := New[string]()
	c.Set("coach:1", "a", time.Second)
	c.Set("coach:2", "b", time.Second)
	c.Set("manager:1", "c", time.Second)
	c.Invalidate("coach:")

	seen := 0
	c.Range(func(key, value string) bool {
		seen++
		if key != "manager:1" {
			t.Fatalf("unexpected key %s", key)
		}
		return true
	})
	if seen != 1 {
		t.Fatalf("expected 1 entry, saw %d", seen)
	}
	c.Delete("manager:1")
	if _, ok := c.Get("manager:1"); ok {
		t.Fatalf("expected deleted key to return false")
	}
}

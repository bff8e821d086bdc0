package ratelimit

import (
	"testing"
	"time"
)

func TestAllowPerKeyBudget(t *testing.T) {
	l := NewLimiter(3)
	defer l.Stop()
	frozen := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return frozen }

	for i := 0; i < 3; i++ {
		if !l.Allow("org-1") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if l.Allow("org-1") {
		t.Fatalf("fourth request within the minute should be limited")
	}
	if !l.Allow("org-2") {
		t.Fatalf("other tenants have their own bucket")
	}
	if !l.Allow("") {
		t.Fatalf("unscoped requests are not limited")
	}

	frozen = frozen.Add(20 * time.Second)
	if !l.Allow("org-1") {
		t.Fatalf("a token should refill after 20s")
	}
}

func TestAllowStrictIsSeparate(t *testing.T) {
	l := NewLimiter(100)
	defer l.Stop()
	frozen := time.Now()
	l.now = func() time.Time { return frozen }

	if !l.AllowStrict("1.2.3.4", 1) {
		t.Fatalf("first attempt should pass")
	}
	if l.AllowStrict("1.2.3.4", 1) {
		t.Fatalf("second attempt should be limited")
	}
	if !l.Allow("1.2.3.4") {
		t.Fatalf("strict budget must not consume the regular one")
	}
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	l := NewLimiter(5)
	defer l.Stop()
	frozen := time.Now()
	l.now = func() time.Time { return frozen }

	l.Allow("org-1")
	frozen = frozen.Add(time.Hour)
	l.sweep()
	if len(l.buckets) != 0 {
		t.Fatalf("idle bucket should be dropped")
	}
	l.Stop()
}

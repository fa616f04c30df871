package httpserver

import (
	"testing"
	"time"
)

func TestIPLimiter_EvictsIdleVisitors(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(30, 2)
	l.now = func() time.Time { return clock }

	l.get("10.0.0.1")
	l.get("10.0.0.2")
	if n := l.size(); n != 2 {
		t.Fatalf("expected two visitors, got %d", n)
	}

	clock = clock.Add(limiterIdleTTL / 2)
	l.get("10.0.0.2")

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	l.get("10.0.0.3")
	if n := l.size(); n != 2 {
		t.Fatalf("expected idle visitor evicted, got %d visitors", n)
	}
	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Fatalf("expected 10.0.0.1 to be evicted")
	}
}

func TestIPLimiter_KeepsBucketWhileActive(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, 1)
	l.now = func() time.Time { return clock }

	if !l.get("10.0.0.1").AllowN(clock, 1) {
		t.Fatalf("expected first request allowed")
	}
	clock = clock.Add(time.Second)
	if l.get("10.0.0.1").AllowN(clock, 1) {
		t.Fatalf("expected spent bucket to be reused")
	}
}

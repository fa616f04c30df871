package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errDown = errors.New("down")

func newTestBreaker() (*Breaker, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New(Config{FailureThreshold: 2, SuccessThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxCalls: 1})
	b.now = func() time.Time { return now }
	return b, &now
}

func fail() error    { return errDown }
func succeed() error { return nil }

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker()

	_ = b.Do(fail)
	_ = b.Do(succeed)
	_ = b.Do(fail)
	if b.State() != StateClosed {
		t.Fatalf("expected closed after non-consecutive failures, got %s", b.State())
	}

	_ = b.Do(fail)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) || called {
		t.Fatalf("expected ErrOpen without calling fn, got %v (called=%v)", err, called)
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, now := newTestBreaker()
	_ = b.Do(fail)
	_ = b.Do(fail)

	*now = now.Add(time.Minute)
	if err := b.Do(succeed); err != nil {
		t.Fatalf("expected trial call to run, got %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after one success, got %s", b.State())
	}
	_ = b.Do(succeed)
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker()
	_ = b.Do(fail)
	_ = b.Do(fail)

	*now = now.Add(time.Minute)
	if err := b.Do(fail); !errors.Is(err, errDown) {
		t.Fatalf("expected trial call error, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open again, got %s", b.State())
	}
	if err := b.Do(succeed); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold int, openTimeout time.Duration, observer StateObserver) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   1,
		Observer:         observer,
	})
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	var transitions []string
	b, now := newTestBreaker(2, 5*time.Second, func(from, to CircuitState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	})

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	*now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_ExecuteIgnoresNonFailures(t *testing.T) {
	b, _ := newTestBreaker(1, time.Minute, nil)
	errRejected := errors.New("rejected by remote")

	err := b.Execute(func() error { return errRejected }, func(error) bool { return false })
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected fn error to pass through, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after non-failure error, got %s", state)
	}

	errDown := errors.New("connection refused")
	_ = b.Execute(func() error { return errDown }, func(error) bool { return true })
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failure, got %s", state)
	}

	called := false
	err = b.Execute(func() error { called = true; return nil }, nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run while open")
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(1, time.Second, nil)

	b.RecordFailure()
	*now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after failed probe, got %s", state)
	}
}

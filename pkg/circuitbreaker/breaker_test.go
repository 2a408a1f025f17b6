package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, Timeout: time.Minute})
	failure := errors.New("downstream failure")

	for i := 0; i < 3; i++ {
		if err := cb.Execute(context.Background(), func() error { return failure }); !errors.Is(err, failure) {
			t.Fatalf("attempt %d: expected downstream error, got %v", i, err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %s", cb.State())
	}

	err := cb.Execute(context.Background(), func() error {
		t.Fatal("function must not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 2, Timeout: time.Minute})
	failure := errors.New("downstream failure")

	cb.Execute(context.Background(), func() error { return failure })
	cb.Execute(context.Background(), func() error { return nil })
	cb.Execute(context.Background(), func() error { return failure })

	if cb.State() != StateClosed {
		t.Errorf("interleaved success must keep the breaker closed, got %s", cb.State())
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		MaxRequests:      1,
		Timeout:          10 * time.Millisecond,
	})

	cb.Execute(context.Background(), func() error { return errors.New("boom") })
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %s", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed state after successful probe, got %s", cb.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		MaxRequests:      1,
		Timeout:          10 * time.Millisecond,
	})

	cb.Execute(context.Background(), func() error { return errors.New("boom") })
	time.Sleep(20 * time.Millisecond)

	cb.Execute(context.Background(), func() error { return errors.New("still down") })

	if cb.State() != StateOpen {
		t.Errorf("expected open state after failed probe, got %s", cb.State())
	}
}

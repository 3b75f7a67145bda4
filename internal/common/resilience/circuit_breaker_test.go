package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	commonerrors "github.com/AlibekovAA/session-auth/internal/common/errors"
)

var errExpected = errors.New("not found")

func newTestBreaker(threshold int32, resetAfter time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Threshold:  threshold,
		Timeout:    time.Second,
		ResetAfter: resetAfter,
		IsExpected: func(err error) bool { return errors.Is(err, errExpected) },
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(2, time.Hour)
	fail := errors.New("db down")

	for i := 0; i < 2; i++ {
		if err := cb.Call(context.Background(), func(context.Context) error { return fail }); !errors.Is(err, fail) {
			t.Fatalf("call %d: expected underlying error, got %v", i, err)
		}
	}

	err := cb.Call(context.Background(), func(context.Context) error {
		t.Fatal("operation must not run while circuit is open")
		return nil
	})
	if !errors.Is(err, commonerrors.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_IgnoresExpectedErrors(t *testing.T) {
	cb := newTestBreaker(1, time.Hour)

	for i := 0; i < 5; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return errExpected })
	}
	if cb.IsOpen() {
		t.Fatal("expected errors must not open the circuit")
	}
}

func TestCircuitBreaker_ResetsAfterWindow(t *testing.T) {
	cb := newTestBreaker(1, time.Millisecond)
	_ = cb.Call(context.Background(), func(context.Context) error { return errors.New("x") })

	time.Sleep(5 * time.Millisecond)
	if cb.IsOpen() {
		t.Fatal("expected circuit to close after reset window")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := newTestBreaker(2, time.Hour)
	_ = cb.Call(context.Background(), func(context.Context) error { return errors.New("x") })
	_ = cb.Call(context.Background(), func(context.Context) error { return nil })
	_ = cb.Call(context.Background(), func(context.Context) error { return errors.New("x") })

	if cb.IsOpen() {
		t.Fatal("a success between failures must reset the counter")
	}
}

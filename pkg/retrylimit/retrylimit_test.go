package retrylimit

import (
	"context"
	"errors"
	"testing"
)

func TestWithAttemptsStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithAttempts(context.Background(), 3, nil, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWithAttemptsReturnsLastError(t *testing.T) {
	calls := 0
	last := errors.New("final")
	err := WithAttempts(context.Background(), 3, nil, func() error {
		calls++
		if calls == 3 {
			return last
		}
		return errors.New("earlier")
	})
	if err != last {
		t.Fatalf("err = %v, want the last error", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestWithAttemptsHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := WithAttempts(ctx, 3, nil, func() error {
		calls++
		return errors.New("never reached")
	})
	if err == nil || calls != 0 {
		t.Fatalf("cancelled context must short-circuit: err=%v calls=%d", err, calls)
	}
}

func TestAdaptiveLimiterBounds(t *testing.T) {
	l := NewAdaptiveLimiter(4, 1, 8, 2, 0.5)
	if got := l.CurrentLimit(); got != 4 {
		t.Fatalf("initial = %v", got)
	}
	l.Failure()
	if got := l.CurrentLimit(); got != 2 {
		t.Fatalf("after failure = %v", got)
	}
	for i := 0; i < 10; i++ {
		l.Failure()
	}
	if got := l.CurrentLimit(); got != 1 {
		t.Fatalf("floor = %v", got)
	}
}

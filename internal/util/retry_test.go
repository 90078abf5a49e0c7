package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Retry(3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Retry() = %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("Retry() calls = %d, want 3", calls)
	}
}

func TestRetryErrExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("permanent")
	err := RetryErr(2, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("RetryErr() error = %v, want %v", err, wantErr)
	}
	if calls != 2 {
		t.Errorf("RetryErr() calls = %d, want 2", calls)
	}
}

func TestRetryErrDefaultsToOneAttempt(t *testing.T) {
	calls := 0
	_ = RetryErr(0, func() error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 {
		t.Errorf("RetryErr() calls = %d, want 1", calls)
	}
}

func TestRetryErrWithContextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryErrWithContext(ctx, 5, func(context.Context) error {
		calls++
		cancel()
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryErrWithContext() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("RetryErrWithContext() calls = %d, want 1", calls)
	}
}

func TestRetryErrWithContextRetriesPerAttemptTimeout(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 2, func(ctx context.Context) error {
		calls++
		attemptCtx, cancel := context.WithTimeout(ctx, time.Millisecond)
		defer cancel()
		<-attemptCtx.Done()
		return attemptCtx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RetryErrWithContext() error = %v, want context.DeadlineExceeded", err)
	}
	if calls != 2 {
		t.Errorf("RetryErrWithContext() calls = %d, want 2", calls)
	}
}

func TestRetryWithContextRetriesPerAttemptTimeout(t *testing.T) {
	calls := 0
	_, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) (int, error) {
		calls++
		attemptCtx, cancel := context.WithTimeout(ctx, time.Millisecond)
		defer cancel()
		<-attemptCtx.Done()
		return 0, attemptCtx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RetryWithContext() error = %v, want context.DeadlineExceeded", err)
	}
	if calls != 3 {
		t.Errorf("RetryWithContext() calls = %d, want 3", calls)
	}
}

func TestRetryWithContextReturnsResult(t *testing.T) {
	got, err := RetryWithContext(context.Background(), 2, func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("RetryWithContext() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("RetryWithContext() = %q, want %q", got, "ok")
	}
}

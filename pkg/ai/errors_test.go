package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClassifyError(t *testing.T) {
	timeout := 30 * time.Second

	t.Run("deadline becomes timeout error", func(t *testing.T) {
		err := ClassifyError("test", timeout, fmt.Errorf("call: %w", context.DeadlineExceeded))
		var timeoutErr *LLMTimeoutError
		if !errors.As(err, &timeoutErr) {
			t.Fatalf("expected LLMTimeoutError, got %T", err)
		}
		if timeoutErr.Provider != "test" || timeoutErr.Timeout != timeout {
			t.Errorf("unexpected fields %+v", timeoutErr)
		}
	})

	t.Run("typed errors pass through", func(t *testing.T) {
		rate := &RateLimitError{RetryAfter: time.Minute}
		if got := ClassifyError("test", timeout, rate); got != rate {
			t.Errorf("rate limit error was rewrapped: %v", got)
		}
		unavailable := &LLMUnavailableError{Provider: "test"}
		if got := ClassifyError("test", timeout, unavailable); got != unavailable {
			t.Errorf("unavailable error was rewrapped: %v", got)
		}
	})

	t.Run("other errors become unavailable", func(t *testing.T) {
		err := ClassifyError("test", timeout, errors.New("connection refused"))
		var unavailable *LLMUnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("expected LLMUnavailableError, got %T", err)
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if err := ClassifyError("test", timeout, nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestIsLLMFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", &LLMTimeoutError{Provider: "x"}, true},
		{"unavailable", &LLMUnavailableError{Provider: "x"}, true},
		{"wrapped timeout", fmt.Errorf("outer: %w", &LLMTimeoutError{Provider: "x"}), true},
		{"rate limit", &RateLimitError{RetryAfter: time.Second}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsLLMFailure(c.err); got != c.want {
				t.Errorf("IsLLMFailure(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LLMUnavailableError reports that the model endpoint could not be
// reached or returned a non-recoverable failure. Resolution call sites
// catch it and fall back to deterministic rules.
type LLMUnavailableError struct {
	Provider string
	Err      error
}

func (e *LLMUnavailableError) Error() string {
	return fmt.Sprintf("llm unavailable (provider %s): %v", e.Provider, e.Err)
}

func (e *LLMUnavailableError) Unwrap() error {
	return e.Err
}

// LLMTimeoutError reports that a model call exceeded its per-call
// timeout. Call sites retry exactly once before falling back.
type LLMTimeoutError struct {
	Provider string
	Timeout  time.Duration
	Err      error
}

func (e *LLMTimeoutError) Error() string {
	return fmt.Sprintf("llm call timed out after %s (provider %s): %v", e.Timeout, e.Provider, e.Err)
}

func (e *LLMTimeoutError) Unwrap() error {
	return e.Err
}

// RateLimitError reports a 429 from an external integration. It carries
// the server's retry-after hint and is surfaced to the caller rather than
// silently retried.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// ClassifyError wraps a provider error into the typed taxonomy. Context
// deadline errors become LLMTimeoutError; everything else becomes
// LLMUnavailableError. Errors already typed pass through unchanged.
func ClassifyError(provider string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	var timeoutErr *LLMTimeoutError
	var unavailErr *LLMUnavailableError
	var rateErr *RateLimitError
	if errors.As(err, &timeoutErr) || errors.As(err, &unavailErr) || errors.As(err, &rateErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &LLMTimeoutError{Provider: provider, Timeout: timeout, Err: err}
	}
	return &LLMUnavailableError{Provider: provider, Err: err}
}

// IsLLMFailure reports whether err is a timeout or availability failure
// that should trigger the deterministic fallback path.
func IsLLMFailure(err error) bool {
	if err == nil {
		return false
	}
	var timeoutErr *LLMTimeoutError
	var unavailErr *LLMUnavailableError
	return errors.As(err, &timeoutErr) || errors.As(err, &unavailErr)
}

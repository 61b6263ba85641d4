// Package bonsaierror defines the error kinds shared by the drivers, the
// categorizers and the LLM providers.
package bonsaierror

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrIndex marks a column access outside the addressable range.
	ErrIndex = errors.New("index out of range")
	// ErrValue marks a driver precondition violation.
	ErrValue = errors.New("invalid value")
	// ErrValidation marks LLM output that does not satisfy the caller's contract.
	ErrValidation = errors.New("validation failed")
	// ErrProvider marks a failed call to an LLM provider.
	ErrProvider = errors.New("provider error")
)

// IndexError represents an out-of-range column access
type IndexError struct {
	Op     string
	Start  int
	End    int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: range [%d, %d) outside column of length %d",
		e.Op, e.Start, e.End, e.Length)
}

func (e *IndexError) Unwrap() error {
	return ErrIndex
}

// PreconditionError represents a driver argument that was rejected before
// any processing began.
type PreconditionError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Param, e.Value, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return ErrValue
}

// ValidationError represents model output that was rejected by a categorizer
// or transformer.
type ValidationError struct {
	Component string
	Reason    string
	Output    string // Optional: a snippet of the rejected output
}

func (e *ValidationError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %s. Output snippet: '%s'", e.Component, e.Reason, snippet(e.Output))
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ProviderError represents a failed request to an LLM provider.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the request never produced a response
	Message    string
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

// Unwrap exposes both the provider sentinel and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProvider, e.Err}
	}
	return []error{ErrProvider}
}

// IsRetryable reports whether err is worth another attempt against the
// provider. Invalid arguments, rejected output, cancellation and
// non-retryable provider errors are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrValue) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return true
}

// RetryableStatus reports whether an HTTP status code from a provider is
// transient.
func RetryableStatus(status int) bool {
	return status == 408 || status == 409 || status == 429 || status >= 500
}

// snippet shortens s to at most 200 bytes without splitting a rune.
func snippet(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

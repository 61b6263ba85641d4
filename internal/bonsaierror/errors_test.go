package bonsaierror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestIndexError(t *testing.T) {
	err := &IndexError{Op: "write", Start: 8, End: 12, Length: 10}

	assert.True(t, errors.Is(err, ErrIndex))
	assert.False(t, errors.Is(err, ErrValue))
	assert.Equal(t, "write: range [8, 12) outside column of length 10", err.Error())
}

func TestPreconditionError(t *testing.T) {
	err := fmt.Errorf("apply: %w", &PreconditionError{Param: "start_idx", Value: 10, Reason: "must be below 10"})

	assert.True(t, errors.Is(err, ErrValue))
	var pe *PreconditionError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "start_idx", pe.Param)
	assert.Contains(t, err.Error(), "invalid start_idx (10)")
}

func TestValidationError(t *testing.T) {
	t.Run("without output", func(t *testing.T) {
		err := &ValidationError{Component: "categorizer", Reason: "unknown category"}
		assert.Equal(t, "categorizer: unknown category", err.Error())
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("long output is truncated", func(t *testing.T) {
		err := &ValidationError{Component: "decompose", Reason: "not JSON", Output: strings.Repeat("x", 500)}
		assert.Contains(t, err.Error(), "...")
		assert.Less(t, len(err.Error()), 300)
	})
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short", "Positive||Negative", "Positive||Negative"},
		{"exactly the limit", strings.Repeat("x", 200), strings.Repeat("x", 200)},
		{"ascii over the limit", strings.Repeat("x", 201), strings.Repeat("x", 200) + "..."},
		{"cut inside a two byte rune", "a" + strings.Repeat("é", 150), "a" + strings.Repeat("é", 99) + "..."},
		{"cut inside a four byte rune", strings.Repeat("x", 198) + "🌳🌳", strings.Repeat("x", 198) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snippet(tt.input)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestProviderError(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &ProviderError{Provider: "openai", Retryable: true, Err: cause}

	assert.True(t, errors.Is(err, ErrProvider))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "openai: context deadline exceeded", err.Error())

	withStatus := &ProviderError{Provider: "anthropic", StatusCode: 429, Message: "rate limited"}
	assert.Equal(t, "anthropic: status 429: rate limited", withStatus.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", &ValidationError{Component: "c", Reason: "r"}, false},
		{"wrapped validation", fmt.Errorf("batch: %w", &ValidationError{Component: "c", Reason: "r"}), false},
		{"retryable provider", &ProviderError{Provider: "p", StatusCode: 503, Retryable: true}, true},
		{"final provider", &ProviderError{Provider: "p", StatusCode: 401}, false},
		{"plain error", errors.New("connection reset"), true},
		{"precondition", &PreconditionError{Param: "system_prompt", Reason: "required"}, false},
		{"cancelled", fmt.Errorf("request: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, RetryableStatus(429))
	assert.True(t, RetryableStatus(500))
	assert.True(t, RetryableStatus(503))
	assert.True(t, RetryableStatus(408))
	assert.False(t, RetryableStatus(400))
	assert.False(t, RetryableStatus(401))
	assert.False(t, RetryableStatus(404))
}

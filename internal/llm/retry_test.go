package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(tries int) RetryPolicy {
	return RetryPolicy{Multiplier: 0, MinWait: time.Millisecond, MaxWait: 2 * time.Millisecond, MaxTries: tries}
}

func TestWithRetry_RecoversFromTransientErrors(t *testing.T) {
	failures := 2
	inner := NewMockProvider(func(MockCall) (string, error) {
		if failures > 0 {
			failures--
			return "", &bonsaierror.ProviderError{Provider: "mock", StatusCode: 503, Retryable: true}
		}
		return "ok", nil
	})
	logger := logging.NewMockLogger()
	p := WithRetry(inner, fastPolicy(5), logger)

	out, err := p.Generate(context.Background(), "s", "u")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Len(t, inner.Calls(), 3)
	assert.Len(t, logger.GetEntriesByLevel("WARN"), 2)
	assert.Equal(t, "mock", p.Name())
}

func TestWithRetry_StopsAfterMaxTries(t *testing.T) {
	transient := &bonsaierror.ProviderError{Provider: "mock", StatusCode: 500, Retryable: true}
	inner := NewMockProvider(func(MockCall) (string, error) { return "", transient })
	p := WithRetry(inner, fastPolicy(3), logging.NewMockLogger())

	_, err := p.GenerateBatch(context.Background(), "s", []string{"a"})

	assert.ErrorIs(t, err, transient)
	assert.Len(t, inner.Calls(), 3)
}

func TestWithRetry_PermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized", &bonsaierror.ProviderError{Provider: "mock", StatusCode: 401}},
		{"bad prompt", &bonsaierror.PreconditionError{Param: "system_prompt", Reason: "required"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := NewMockProvider(func(MockCall) (string, error) { return "", tt.err })
			p := WithRetry(inner, fastPolicy(5), logging.NewMockLogger())

			_, err := p.Generate(context.Background(), "s", "u")

			assert.ErrorIs(t, err, tt.err)
			assert.Len(t, inner.Calls(), 1)
		})
	}
}

func TestWithRetry_SingleTry(t *testing.T) {
	inner := NewMockProvider(func(MockCall) (string, error) { return "", errors.New("flaky") })
	p := WithRetry(inner, RetryPolicy{}, logging.NewMockLogger())

	_, err := p.Generate(context.Background(), "s", "u")

	assert.EqualError(t, err, "flaky")
	assert.Len(t, inner.Calls(), 1)
}

func TestWithRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := NewMockProvider(func(MockCall) (string, error) {
		cancel()
		return "", errors.New("flaky")
	})
	policy := RetryPolicy{Multiplier: 1, MinWait: time.Second, MaxWait: time.Second, MaxTries: 5}
	p := WithRetry(inner, policy, logging.NewMockLogger())

	start := time.Now()
	_, err := p.Generate(ctx, "s", "u")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Len(t, inner.Calls(), 1)
}

func TestRetryPolicy_Intervals(t *testing.T) {
	policy := RetryPolicy{Multiplier: 1, MinWait: 2 * time.Second, MaxWait: 5 * time.Second, MaxTries: 5}
	b := policy.backOff(context.Background())

	var waits []time.Duration
	for {
		next := b.NextBackOff()
		if next < 0 {
			break
		}
		waits = append(waits, next)
	}

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, waits)
}

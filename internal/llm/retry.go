package llm

import (
	"context"
	"time"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/logging"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is an exponential backoff: the n-th wait is
// Multiplier * 2^n seconds, kept within [MinWait, MaxWait]. At most MaxTries
// attempts are made.
type RetryPolicy struct {
	Multiplier float64
	MinWait    time.Duration
	MaxWait    time.Duration
	MaxTries   int
}

// DefaultRetryPolicy waits 1s, 2s, 4s... up to a minute, for ten attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Multiplier: 1,
		MinWait:    time.Second,
		MaxWait:    60 * time.Second,
		MaxTries:   10,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	initial := time.Duration(p.Multiplier * float64(time.Second))
	if initial < p.MinWait {
		initial = p.MinWait
	}
	maxWait := p.MaxWait
	if maxWait < initial {
		maxWait = initial
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(initial),
		backoff.WithMultiplier(2),
		backoff.WithMaxInterval(maxWait),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxElapsedTime(0),
	)
	tries := p.MaxTries
	if tries < 1 {
		tries = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(tries-1)), ctx)
}

type retryProvider struct {
	Provider
	policy RetryPolicy
	logger logging.Logger
}

// WithRetry retries failed calls to p with exponential backoff. Errors that
// bonsaierror.IsRetryable rejects are returned at once.
func WithRetry(p Provider, policy RetryPolicy, logger logging.Logger) Provider {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &retryProvider{
		Provider: p,
		policy:   policy,
		logger:   logger.WithField(logging.FieldProvider, p.Name()),
	}
}

func (r *retryProvider) Generate(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	return r.do(ctx, func() (string, error) {
		return r.Provider.Generate(ctx, system, user, opts...)
	})
}

func (r *retryProvider) GenerateBatch(ctx context.Context, system string, users []string, opts ...CallOption) (string, error) {
	return r.do(ctx, func() (string, error) {
		return r.Provider.GenerateBatch(ctx, system, users, opts...)
	})
}

func (r *retryProvider) do(ctx context.Context, call func() (string, error)) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		out, err := call()
		if err != nil && !bonsaierror.IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.WithError(err).Warn("Provider call failed, retrying",
			logging.Field{Key: logging.FieldAttempt, Value: attempt},
			logging.Field{Key: "wait_ms", Value: wait.Milliseconds()})
	}
	return backoff.RetryNotifyWithData(op, r.policy.backOff(ctx), notify)
}

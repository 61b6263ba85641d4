package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type rateLimitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// WithRateLimit spaces calls to p so that at most requestsPerMinute start in
// any minute. A non-positive limit returns p unchanged.
func WithRateLimit(p Provider, requestsPerMinute int) Provider {
	if requestsPerMinute <= 0 {
		return p
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &rateLimitedProvider{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (r *rateLimitedProvider) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", r.Name(), err)
	}
	return nil
}

func (r *rateLimitedProvider) Generate(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	return r.Provider.Generate(ctx, system, user, opts...)
}

func (r *rateLimitedProvider) GenerateBatch(ctx context.Context, system string, users []string, opts ...CallOption) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	return r.Provider.GenerateBatch(ctx, system, users, opts...)
}

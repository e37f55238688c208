package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter throttles calls to the wrapped provider with a token bucket.
type RateLimiter struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimiter wraps next so that at most requestsPerSecond calls start per
// second, with bursts up to burst.
func NewRateLimiter(next Provider, requestsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// WithRateLimit returns a Middleware for NewRateLimiter.
func WithRateLimit(requestsPerSecond float64, burst int) Middleware {
	return func(p Provider) Provider {
		return NewRateLimiter(p, requestsPerSecond, burst)
	}
}

// Complete waits for a token and then calls the wrapped provider.
func (r *RateLimiter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return r.next.Complete(ctx, prompt)
}

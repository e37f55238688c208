// Package llm provides completion providers and the decorators that add
// rate limiting, retries and instrumentation around them.
package llm

import (
	"context"
	"errors"
)

// Provider turns a prompt into completion text.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Provider.
func (f ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrEmptyResponse is returned when the provider answers without choices.
	ErrEmptyResponse = errors.New("llm: empty response")

	// ErrRateLimited is returned when the rate limiter cannot grant a slot
	// before the context ends.
	ErrRateLimited = errors.New("llm: rate limited")
)

// Middleware wraps a Provider.
type Middleware func(Provider) Provider

// Chain applies middlewares so that the first one is outermost.
func Chain(p Provider, mws ...Middleware) Provider {
	for i := len(mws) - 1; i >= 0; i-- {
		p = mws[i](p)
	}
	return p
}

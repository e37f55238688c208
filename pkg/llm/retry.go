package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/pantryplay/pantryplay/pkg/logger"
)

// RetryConfig controls Retrier.
type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Retryable classifies errors. Defaults to IsTransient.
	Retryable func(error) bool
}

// Retrier retries transient failures of the wrapped provider with
// exponential backoff.
type Retrier struct {
	next Provider
	cfg  RetryConfig
	log  logger.Logger
}

// NewRetrier wraps next.
func NewRetrier(next Provider, cfg RetryConfig, log logger.Logger) *Retrier {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = backoff.DefaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = backoff.DefaultMaxInterval
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsTransient
	}
	if log == nil {
		log = logger.Global()
	}
	return &Retrier{next: next, cfg: cfg, log: log.With("component", "llm")}
}

// WithRetry returns a Middleware for NewRetrier.
func WithRetry(cfg RetryConfig, log logger.Logger) Middleware {
	return func(p Provider) Provider {
		return NewRetrier(p, cfg, log)
	}
}

// Complete calls the wrapped provider until it succeeds, fails permanently
// or the attempt budget runs out.
func (r *Retrier) Complete(ctx context.Context, prompt string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval

	op := func() (string, error) {
		out, err := r.next.Complete(ctx, prompt)
		if err != nil && !r.cfg.Retryable(err) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.cfg.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.log.WarnContext(ctx, "retrying completion", "error", err, "wait", wait)
		}),
	)
}

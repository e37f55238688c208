package llm

import (
	"fmt"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/logger"
)

// New builds the configured provider with its decorators. Calls pass through
// instrumentation, then retries, then the rate limiter, so every attempt
// consumes a rate limit token and the recorded latency covers all attempts.
func New(cfg config.LLMConfig, log logger.Logger, metrics MetricsRecorder) (Provider, error) {
	var (
		base Provider
		err  error
	)
	name := cfg.Provider
	if name == "" {
		name = "openai"
	}

	switch name {
	case "openai":
		base, err = NewOpenAI(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			JSONMode:    cfg.JSONMode,
		}, log)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", name)
	}

	mws := []Middleware{WithInstrumentation(name, metrics)}
	if cfg.Retry.MaxAttempts > 1 {
		mws = append(mws, WithRetry(RetryConfig{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
		}, log))
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerSecond > 0 {
		mws = append(mws, WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}
	return Chain(base, mws...), nil
}

package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MetricsRecorder receives one observation per completion request.
type MetricsRecorder interface {
	RecordLLMRequest(provider string, success bool, duration time.Duration)
}

// Instrumented records metrics and a trace span around the wrapped provider.
type Instrumented struct {
	next    Provider
	name    string
	metrics MetricsRecorder
}

// NewInstrumented wraps next. metrics may be nil.
func NewInstrumented(next Provider, name string, metrics MetricsRecorder) *Instrumented {
	return &Instrumented{next: next, name: name, metrics: metrics}
}

// WithInstrumentation returns a Middleware for NewInstrumented.
func WithInstrumentation(name string, metrics MetricsRecorder) Middleware {
	return func(p Provider) Provider {
		return NewInstrumented(p, name, metrics)
	}
}

// Complete implements Provider.
func (i *Instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("pantryplay/llm").Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", i.name),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	start := time.Now()
	out, err := i.next.Complete(ctx, prompt)
	if i.metrics != nil {
		i.metrics.RecordLLMRequest(i.name, err == nil, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_length", len(out)))
	return out, nil
}

package tracing

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/logger"
)

// fakeExporter records exported spans. exportErr makes every export fail;
// hang makes Shutdown wait for its context.
type fakeExporter struct {
	exportErr error
	hang      bool

	mu       sync.Mutex
	spans    []sdktrace.ReadOnlySpan
	calls    int
	shutdown bool
}

func (f *fakeExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.exportErr != nil {
		return f.exportErr
	}
	f.spans = append(f.spans, spans...)
	return nil
}

func (f *fakeExporter) Shutdown(ctx context.Context) error {
	if f.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	f.shutdown = true
	f.mu.Unlock()
	return nil
}

// useExporter routes Init to exp and restores the global provider afterwards.
func useExporter(t *testing.T, exp sdktrace.SpanExporter) *bool {
	t.Helper()
	origFactory := newOTLPExporter
	origProvider := otel.GetTracerProvider()
	called := false
	newOTLPExporter = func(context.Context, config.TracingConfig) (sdktrace.SpanExporter, error) {
		called = true
		return exp, nil
	}
	t.Cleanup(func() {
		newOTLPExporter = origFactory
		otel.SetTracerProvider(origProvider)
	})
	return &called
}

func enabledConfig(endpoint string) config.TracingConfig {
	return config.TracingConfig{
		Enabled:    true,
		Exporter:   "otlp",
		Endpoint:   endpoint,
		Timeout:    time.Second,
		Sampler:    "always_on",
		SampleRate: 1,
	}
}

var kitchen = Service{Name: "pantryplay", Version: "1.2.0", Environment: "staging"}

func TestInit_Disabled(t *testing.T) {
	called := useExporter(t, &fakeExporter{})

	shutdown, err := Init(context.Background(), config.TracingConfig{}, kitchen, logger.Nop())
	require.NoError(t, err)
	assert.False(t, *called, "no exporter when tracing is off")
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.TracingConfig)
		wantErr string
	}{
		{"missing endpoint", func(c *config.TracingConfig) { c.Endpoint = " " }, "endpoint"},
		{"unknown exporter", func(c *config.TracingConfig) { c.Exporter = "zipkin" }, `"zipkin"`},
		{"zero timeout", func(c *config.TracingConfig) { c.Timeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabledConfig("collector:4317")
			tt.mutate(&cfg)
			_, err := Init(context.Background(), cfg, kitchen, logger.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInit_ExportsWithServiceResource(t *testing.T) {
	exp := &fakeExporter{}
	useExporter(t, exp)

	shutdown, err := Init(context.Background(), enabledConfig("http://collector:4317/v1/traces"), kitchen, logger.Nop())
	require.NoError(t, err)

	_, span := otel.Tracer("agent").Start(context.Background(), "batch")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))

	exp.mu.Lock()
	defer exp.mu.Unlock()
	assert.True(t, exp.shutdown)
	require.Len(t, exp.spans, 1)
	assert.Equal(t, "batch", exp.spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range exp.spans[0].Resource().Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "pantryplay", attrs["service.name"])
	assert.Equal(t, "1.2.0", attrs["service.version"])
	assert.Equal(t, "staging", attrs["deployment.environment.name"])
}

func TestInit_ExportFailureIsLogged(t *testing.T) {
	exp := &fakeExporter{exportErr: errors.New("collector down")}
	useExporter(t, exp)

	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: logger.WarnLevel, Format: "json", Writer: &buf})

	shutdown, err := Init(context.Background(), enabledConfig("collector:4317"), kitchen, log)
	require.NoError(t, err)

	_, span := otel.Tracer("agent").Start(context.Background(), "task")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx), "delivery failures stay out of shutdown")

	exp.mu.Lock()
	assert.Positive(t, exp.calls)
	exp.mu.Unlock()
	assert.Contains(t, buf.String(), "tracing exporter failed")
	assert.Contains(t, buf.String(), "collector down")
}

func TestShutdown_RespectsDeadline(t *testing.T) {
	useExporter(t, &fakeExporter{hang: true})

	shutdown, err := Init(context.Background(), enabledConfig("collector:4317"), kitchen, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Error(t, shutdown(ctx))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSelectSampler(t *testing.T) {
	tests := []struct {
		sampler string
		want    string
	}{
		{"always_on", "AlwaysOnSampler"},
		{"ALWAYS_OFF", "AlwaysOffSampler"},
		{"traceidratio", "TraceIDRatioBased{0.25}"},
		{"parentbased_traceidratio", "ParentBased{root:TraceIDRatioBased{0.25}"},
		{"", "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		got := selectSampler(config.TracingConfig{Sampler: tt.sampler, SampleRate: 0.25}).Description()
		assert.Contains(t, got, tt.want, "sampler %q", tt.sampler)
	}
}

func TestEndpointHandling(t *testing.T) {
	tests := []struct {
		endpoint string
		insecure bool
		wantHost string
		wantTLS  bool
	}{
		{"collector:4317", false, "collector:4317", true},
		{"collector:4317", true, "collector:4317", false},
		{"http://collector:4317/v1/traces", false, "collector:4317", false},
		{"https://collector:4317", false, "collector:4317", true},
		{"", false, "", true},
	}
	for _, tt := range tests {
		cfg := config.TracingConfig{Endpoint: tt.endpoint, Insecure: tt.insecure}
		assert.Equal(t, tt.wantHost, normalizeEndpoint(tt.endpoint))
		assert.Equal(t, !tt.wantTLS, useInsecure(cfg), "endpoint %q insecure=%v", tt.endpoint, tt.insecure)
	}
}

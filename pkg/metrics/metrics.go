// Package metrics exposes Prometheus collectors for the agent, its memory,
// the LLM client and the HTTP API.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace prefixes every metric name.
const namespace = "pantryplay"

// Manager owns a private registry. A disabled Manager accepts every
// Record call and does nothing.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	batches       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	batchTasks    prometheus.Histogram

	taskExecutions *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec

	memoryStores *prometheus.CounterVec

	llmRequests *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpConnections prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	BatchDurationBuckets []float64
	TaskDurationBuckets  []float64
	LLMDurationBuckets   []float64
	HTTPDurationBuckets  []float64
}

// DefaultConfig returns default metrics configuration. LLM calls dominate
// batch latency, so the batch and task buckets stretch to minutes.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		Port:                 9091,
		Path:                 "/metrics",
		BatchDurationBuckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		TaskDurationBuckets:  []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		LLMDurationBuckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		HTTPDurationBuckets:  []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}
}

// NewManager builds the collectors. With cfg.Enabled false it returns the
// same thing as NoOpManager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return NoOpManager()
	}

	m := &Manager{registry: prometheus.NewRegistry(), enabled: true}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.initAgentMetrics(cfg)
	m.initMemoryMetrics()
	m.initLLMMetrics(cfg)
	m.initHTTPMetrics(cfg)
	return m
}

// NoOpManager returns a disabled manager.
func NoOpManager() *Manager {
	return &Manager{}
}

// Enabled reports whether metrics are collected.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Handler serves the registry in the Prometheus or OpenMetrics format.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// StartServer serves Handler on its own port until ctx is cancelled, then
// returns http.ErrServerClosed. It returns nil at once when disabled.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	return srv.ListenAndServe()
}

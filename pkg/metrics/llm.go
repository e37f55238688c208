package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initLLMMetrics(cfg Config) {
	m.llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of completion requests by provider and result",
		},
		[]string{"provider", "result"},
	)

	m.llmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Completion request latency including retries",
			Buckets:   cfg.LLMDurationBuckets,
		},
		[]string{"provider"},
	)

	m.registry.MustRegister(m.llmRequests, m.llmDuration)
}

// RecordLLMRequest records one completion request.
func (m *Manager) RecordLLMRequest(provider string, success bool, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.llmRequests.WithLabelValues(provider, resultLabel(success)).Inc()
	m.llmDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

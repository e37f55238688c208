package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initMemoryMetrics() {
	m.memoryStores = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_stores_total",
			Help:      "Total number of memory writes by kind and result",
		},
		[]string{"kind", "result"},
	)
	m.registry.MustRegister(m.memoryStores)
}

// RecordMemoryStore records a memory write.
func (m *Manager) RecordMemoryStore(kind string, success bool) {
	if !m.enabled {
		return
	}
	m.memoryStores.WithLabelValues(kind, resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

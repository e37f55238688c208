package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Batch outcomes.
const (
	BatchSucceeded = "succeeded"
	BatchPartial   = "partial"
	BatchEmpty     = "empty"
)

// initAgentMetrics initializes batch and task metrics.
func (m *Manager) initAgentMetrics(cfg Config) {
	m.batches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_batches_total",
			Help:      "Total number of processed requests by outcome",
		},
		[]string{"outcome"},
	)

	m.batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_batch_duration_seconds",
			Help:      "Time to plan, execute and summarise one request",
			Buckets:   cfg.BatchDurationBuckets,
		},
		[]string{"outcome"},
	)

	m.batchTasks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_batch_tasks",
			Help:      "Number of tasks planned per request",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 7},
		},
	)

	m.taskExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_executions_total",
			Help:      "Total number of task executions by kind and result status",
		},
		[]string{"kind", "status"},
	)

	m.taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution duration in seconds",
			Buckets:   cfg.TaskDurationBuckets,
		},
		[]string{"kind"},
	)

	m.registry.MustRegister(m.batches, m.batchDuration, m.batchTasks, m.taskExecutions, m.taskDuration)
}

// RecordBatch records one processed request.
func (m *Manager) RecordBatch(outcome string, tasks int, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.batches.WithLabelValues(outcome).Inc()
	m.batchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.batchTasks.Observe(float64(tasks))
}

// RecordTaskExecution records one task execution.
func (m *Manager) RecordTaskExecution(kind, status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.taskExecutions.WithLabelValues(kind, status).Inc()
	m.taskDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

package agent

import (
	"time"

	"github.com/pantryplay/pantryplay/pkg/task"
)

// BatchEventType represents the type of batch event
type BatchEventType int

const (
	BatchEventStarted BatchEventType = iota
	BatchEventCompleted
)

// String returns the string representation of BatchEventType
func (t BatchEventType) String() string {
	switch t {
	case BatchEventStarted:
		return "STARTED"
	case BatchEventCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// BatchEvent is emitted when a request's task batch starts and ends.
type BatchEvent struct {
	BatchID        string
	EventType      BatchEventType
	Input          string
	TotalTasks     int
	TasksCompleted int
	Summary        string
	Timestamp      time.Time
}

// TaskEventType represents the type of task event
type TaskEventType int

const (
	TaskEventStarted TaskEventType = iota
	TaskEventCompleted
	TaskEventFailed
)

// String returns the string representation of TaskEventType
func (t TaskEventType) String() string {
	switch t {
	case TaskEventStarted:
		return "STARTED"
	case TaskEventCompleted:
		return "COMPLETED"
	case TaskEventFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// TaskEvent is emitted around each task execution.
type TaskEvent struct {
	BatchID   string
	TaskID    string
	Kind      task.Kind
	EventType TaskEventType
	Status    task.Status
	Error     string
	Timestamp time.Time
}

// EventSink receives batch and task notifications. Calls happen on the
// processing goroutine and must not block.
type EventSink interface {
	OnBatchEvent(event BatchEvent)
	OnTaskEvent(event TaskEvent)
}

// MetricsRecorder receives batch and task measurements.
type MetricsRecorder interface {
	RecordBatch(outcome string, tasks int, duration time.Duration)
	RecordTaskExecution(kind, status string, duration time.Duration)
}

// Batch outcomes reported to MetricsRecorder.
const (
	OutcomeSucceeded = "succeeded"
	OutcomePartial   = "partial"
	OutcomeEmpty     = "empty"
)

func batchOutcome(completed, total int) string {
	switch {
	case total == 0:
		return OutcomeEmpty
	case completed == total:
		return OutcomeSucceeded
	default:
		return OutcomePartial
	}
}

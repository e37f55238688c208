// Package events fans agent progress out to in-process subscribers such as
// the websocket handler.
package events

import (
	"sync"
	"time"

	"github.com/pantryplay/pantryplay/pkg/agent"
)

// Event types.
const (
	TypeBatchStarted   = "batch.started"
	TypeBatchCompleted = "batch.completed"
	TypeTaskStarted    = "task.started"
	TypeTaskCompleted  = "task.completed"
	TypeTaskFailed     = "task.failed"
)

// Event is the payload delivered to subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// BatchID returns the batch the event belongs to, or "".
func (e Event) BatchID() string {
	switch p := e.Payload.(type) {
	case map[string]any:
		id, _ := p["batch_id"].(string)
		return id
	case map[string]string:
		return p["batch_id"]
	}
	return ""
}

// TaskKind returns the task kind of a task event, or "" for batch events.
func (e Event) TaskKind() string {
	switch p := e.Payload.(type) {
	case map[string]any:
		kind, _ := p["kind"].(string)
		return kind
	case map[string]string:
		return p["kind"]
	}
	return ""
}

// Broadcaster broadcasts events to in-process subscribers. It implements
// agent.EventSink.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

var _ agent.EventSink = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a buffered channel receiving every event. Slow
// subscribers miss events rather than block the agent.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast delivers event to all subscribers.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// OnBatchEvent implements agent.EventSink.
func (b *Broadcaster) OnBatchEvent(e agent.BatchEvent) {
	typ := TypeBatchStarted
	payload := map[string]any{
		"batch_id":    e.BatchID,
		"input":       e.Input,
		"total_tasks": e.TotalTasks,
	}
	if e.EventType == agent.BatchEventCompleted {
		typ = TypeBatchCompleted
		payload["tasks_completed"] = e.TasksCompleted
		payload["summary"] = e.Summary
	}
	b.Broadcast(Event{Type: typ, Timestamp: e.Timestamp, Payload: payload})
}

// OnTaskEvent implements agent.EventSink.
func (b *Broadcaster) OnTaskEvent(e agent.TaskEvent) {
	var typ string
	switch e.EventType {
	case agent.TaskEventStarted:
		typ = TypeTaskStarted
	case agent.TaskEventCompleted:
		typ = TypeTaskCompleted
	default:
		typ = TypeTaskFailed
	}
	payload := map[string]any{
		"batch_id": e.BatchID,
		"task_id":  e.TaskID,
		"kind":     string(e.Kind),
	}
	if e.Status != "" {
		payload["status"] = string(e.Status)
	}
	if e.Error != "" {
		payload["error"] = e.Error
	}
	b.Broadcast(Event{Type: typ, Timestamp: e.Timestamp, Payload: payload})
}

// Close closes all subscriber channels. Later subscriptions receive a
// closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}

// Package task defines the unit of work produced by the planner and consumed
// by the executor.
package task

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind identifies what a task does. The set is closed.
type Kind string

const (
	KindAnalyzePantry        Kind = "analyze_pantry"
	KindGenerateRecipe       Kind = "generate_recipe"
	KindCheckNutrition       Kind = "check_nutrition"
	KindSuggestSubstitutions Kind = "suggest_substitutions"
	KindCreateShoppingList   Kind = "create_shopping_list"
	KindTrackWaste           Kind = "track_waste"
	KindMoodWeather          Kind = "mood_weather_recommend"

	KindAnalyzeDocument  Kind = "analyze_document"
	KindHealthQuery      Kind = "health_query"
	KindAnalyzeTrends    Kind = "analyze_trends"
	KindCheckMedications Kind = "check_medications"
	KindGenerateReport   Kind = "generate_report"
)

var pantryKinds = []Kind{
	KindAnalyzePantry,
	KindGenerateRecipe,
	KindCheckNutrition,
	KindSuggestSubstitutions,
	KindCreateShoppingList,
	KindTrackWaste,
	KindMoodWeather,
}

var healthKinds = []Kind{
	KindAnalyzeDocument,
	KindHealthQuery,
	KindAnalyzeTrends,
	KindCheckMedications,
	KindGenerateReport,
}

var kinds = append(append([]Kind(nil), pantryKinds...), healthKinds...)

// Kinds returns every kind of every deployment in canonical order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown task kind %q", s)
	}
	return k, nil
}

// Priority orders tasks. Lower values run first.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// String returns the string representation of Priority.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Task is a single planned step. Everything except the previous results
// and the completion state is fixed at creation.
type Task struct {
	// ID is the unique identifier for the task.
	ID string `json:"id"`

	// Kind selects the executor handler.
	Kind Kind `json:"kind"`

	// Description is an informational label.
	Description string `json:"description"`

	// Priority is the sort key used by the planner.
	Priority Priority `json:"priority"`

	// Params carries the typed inputs for Kind.
	Params Params `json:"params,omitempty"`

	mu              sync.RWMutex
	previousResults map[Kind]Result
	completed       bool
	result          Result
}

// New creates a task with a fresh ID.
func New(kind Kind, description string, priority Priority, params Params) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Kind:        kind,
		Description: description,
		Priority:    priority,
		Params:      params,
	}
}

// Validate checks if the task definition is well formed.
func (t *Task) Validate() error {
	if t.ID == "" {
		return &InvalidTaskError{Reason: "task ID cannot be empty"}
	}
	if !t.Kind.Valid() {
		return &InvalidTaskError{ID: t.ID, Reason: fmt.Sprintf("unknown kind %q", t.Kind)}
	}
	if t.Priority < PriorityHigh || t.Priority > PriorityLow {
		return &InvalidTaskError{ID: t.ID, Reason: fmt.Sprintf("priority %d out of range", t.Priority)}
	}
	if t.Params != nil && t.Params.Kind() != t.Kind {
		return &InvalidTaskError{
			ID:     t.ID,
			Reason: fmt.Sprintf("params for %s attached to %s task", t.Params.Kind(), t.Kind),
		}
	}
	return nil
}

// SetPreviousResults records the results of tasks already executed in the
// same batch. The map is copied.
func (t *Task) SetPreviousResults(prev map[Kind]Result) {
	cp := make(map[Kind]Result, len(prev))
	for k, v := range prev {
		cp[k] = v
	}
	t.mu.Lock()
	t.previousResults = cp
	t.mu.Unlock()
}

// PreviousResult returns the earlier result for kind, if any.
func (t *Task) PreviousResult(kind Kind) (Result, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.previousResults[kind]
	return r, ok
}

// Complete marks the task done. Only the first call has an effect; it
// reports whether this call performed the transition.
func (t *Task) Complete(result Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.completed {
		return false
	}
	t.completed = true
	t.result = result
	return true
}

// Completed reports whether the task has been marked done.
func (t *Task) Completed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.completed
}

// Result returns the completion result, or nil before completion.
func (t *Task) Result() Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// String returns a string representation of the task.
func (t *Task) String() string {
	return fmt.Sprintf("Task{ID: %s, Kind: %s, Priority: %s, Completed: %t}",
		t.ID, t.Kind, t.Priority, t.Completed())
}

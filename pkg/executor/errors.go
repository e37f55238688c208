package executor

import (
	"errors"
	"fmt"

	"github.com/pantryplay/pantryplay/pkg/task"
)

// ErrUnsupportedKind matches any UnsupportedKindError.
var ErrUnsupportedKind = errors.New("unsupported task kind")

// UnsupportedKindError is returned when no handler exists for a task kind.
type UnsupportedKindError struct {
	Kind task.Kind
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported task kind %q", e.Kind)
}

func (e *UnsupportedKindError) Is(target error) bool { return target == ErrUnsupportedKind }

// ProviderError wraps a completion provider failure for one task.
type ProviderError struct {
	Kind  task.Kind
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion failed for %s: %v", e.Kind, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

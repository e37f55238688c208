package task

import "fmt"

// InvalidTaskError is returned by Validate for a malformed task.
type InvalidTaskError struct {
	ID     string
	Reason string
}

func (e *InvalidTaskError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid task: %s", e.Reason)
	}
	return fmt.Sprintf("invalid task %s: %s", e.ID, e.Reason)
}

// TaskID returns the task ID.
func (e *InvalidTaskError) TaskID() string {
	return e.ID
}

package task

// Status classifies how a result was produced.
type Status string

const (
	// StatusOK means the structured response decoded cleanly.
	StatusOK Status = "ok"
	// StatusDegraded means the response was not valid structured output and
	// a raw or partially filled record was kept instead.
	StatusDegraded Status = "degraded"
	// StatusFailed means the task could not produce a result.
	StatusFailed Status = "failed"
)

// Result is the outcome of a task. Concrete types are the executor's
// records, the raw-text fallback and Failure.
type Result interface {
	Status() Status
}

// Failure records the error of a task that did not complete.
type Failure struct {
	Error string `json:"error"`
}

// NewFailure wraps err as a Result.
func NewFailure(err error) *Failure {
	if err == nil {
		return &Failure{Error: "unknown error"}
	}
	return &Failure{Error: err.Error()}
}

// Status implements Result.
func (*Failure) Status() Status { return StatusFailed }

// Succeeded reports whether r is a non-nil, non-failed result.
func Succeeded(r Result) bool {
	return r != nil && r.Status() != StatusFailed
}

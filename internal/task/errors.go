package task

import "errors"

// Task lifecycle faults observable by clients. Each maps to a distinct
// HTTP status in the API layer.
var (
	// ErrTaskNotFound is returned when the id has no stored record
	// (never submitted, or expired from storage).
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskResultMissing is returned when a task reached COMPLETED but
	// its stored result is gone. This is a server fault, not a client
	// error: the state machine guarantees the result is written with the
	// terminal status.
	ErrTaskResultMissing = errors.New("task completed but result is missing")

	// ErrUnknownTaskStatus is returned for a stored status outside the
	// lifecycle. It should never occur if the state machine is
	// respected.
	ErrUnknownTaskStatus = errors.New("unknown task status")
)

// FailedError carries the stored error text of a task whose execution
// failed.
type FailedError struct {
	Msg string
}

func (e *FailedError) Error() string {
	return "task failed: " + e.Msg
}

// Package task manages background flight search tasks: submission,
// out-of-band execution, and poll access to task state.
package task

import (
	"github.com/pkazmin/flysearch-api/internal/domain"
)

// Status represents the lifecycle state of a task.
type Status string

// A task moves from processing to exactly one of the terminal states
// and is never written again afterwards.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is the ephemeral, TTL-bounded state of one background task.
// It is written once at submission and once more at completion.
type Record struct {
	TaskID string                  `json:"task_id"`
	Status Status                  `json:"status"`
	Pid    string                  `json:"pid,omitempty"`
	Result *domain.ServiceResponse `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// StatusPayload is the small poll reply for a task that has not reached
// a terminal state yet.
type StatusPayload struct {
	TaskID string `json:"task_id"`
	Status Status `json:"status"`
	Pid    string `json:"pid,omitempty"`
}

// RecordStore persists task records. Implementations must give
// read-after-write visibility to every server process within the TTL
// window; strong consistency is not required since exactly one writer
// owns a given task id.
type RecordStore interface {
	// GetRecord returns the record for the id, if present and unexpired.
	GetRecord(taskID string) (Record, bool)

	// SetRecord stores the record, overwriting any previous value.
	SetRecord(taskID string, rec Record)
}

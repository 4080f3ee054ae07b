package api

import (
	"errors"
	"net/http"

	"github.com/pkazmin/flysearch-api/internal/task"
)

// MapErrorToStatusCode maps task lifecycle faults to HTTP status codes:
// 404 for an unknown task id, 500 for every server-side fault kind.
func MapErrorToStatusCode(err error) int {
	var failed *task.FailedError
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound

	case errors.Is(err, task.ErrTaskResultMissing),
		errors.Is(err, task.ErrUnknownTaskStatus),
		errors.As(err, &failed):
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}

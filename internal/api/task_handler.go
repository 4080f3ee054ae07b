package api

import (
	"log/slog"
	"net/http"

	"github.com/pkazmin/flysearch-api/internal/task"
)

// StartSearchResponse is the reply to a task submission.
type StartSearchResponse struct {
	TaskID string      `json:"task_id"`
	Status task.Status `json:"status"`
}

// TaskHandler handles the asynchronous fire-and-poll endpoints.
type TaskHandler struct {
	tasks  *task.Manager
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *task.Manager, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// StartSearch handles POST /start_search requests: it submits a
// background search task and returns its id immediately.
func (h *TaskHandler) StartSearch(w http.ResponseWriter, r *http.Request) {
	pid := r.URL.Query().Get("pid")

	taskID := h.tasks.Submit(r.Context(), pid)
	h.logger.Info("start_search finished", "task_id", taskID, "pid", pid)

	RespondWithJSON(w, r, http.StatusOK, StartSearchResponse{
		TaskID: taskID,
		Status: task.StatusProcessing,
	})
}

// GetResult handles GET /get_result requests: it polls a task by id,
// returning a status payload while processing and the full response
// once completed. Lifecycle faults map to 404/500.
func (h *TaskHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		RespondWithError(w, r, http.StatusBadRequest, "task_id is required")
		return
	}
	h.logger.Info("get_result called", "task_id", taskID)

	resp, status, err := h.tasks.GetResponse(taskID)
	if err != nil {
		RespondWithError(w, r, MapErrorToStatusCode(err), err.Error())
		return
	}
	if status != nil {
		RespondWithJSON(w, r, http.StatusOK, status)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, resp)
}

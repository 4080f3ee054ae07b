package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pkazmin/flysearch-api/internal/domain"
	"github.com/pkazmin/flysearch-api/internal/platform/metrics"
)

// Searcher executes one full flight search. Satisfied by
// service.FlightSearchService.
type Searcher interface {
	GetOffers(ctx context.Context, pid string) (domain.ServiceResponse, error)
}

// Manager wraps search executions as trackable background tasks. It is
// the only owner of task record lifecycles: one PROCESSING write at
// submission, one terminal write at completion, nothing after.
type Manager struct {
	search  Searcher
	records RecordStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	wg sync.WaitGroup
}

// NewManager wires a task manager.
func NewManager(search Searcher, records RecordStore, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		search:  search,
		records: records,
		logger:  logger,
		metrics: m,
	}
}

// Submit creates a fresh task, records it as PROCESSING synchronously,
// and schedules the search without waiting for it. The PROCESSING
// record is observable the moment Submit returns.
func (m *Manager) Submit(_ context.Context, pid string) string {
	taskID := uuid.NewString()

	m.records.SetRecord(taskID, Record{
		TaskID: taskID,
		Status: StatusProcessing,
		Pid:    pid,
	})
	m.logger.Info("background task started",
		"task_id", taskID,
		"pid", pid,
		"status", StatusProcessing)

	m.wg.Add(1)
	go m.run(taskID, pid)

	return taskID
}

// run executes the search and writes the single terminal record. The
// background execution deliberately outlives the submitting request, so
// it runs under its own context.
func (m *Manager) run(taskID, pid string) {
	defer m.wg.Done()

	resp, err := m.execute(taskID, pid)
	if err != nil {
		m.records.SetRecord(taskID, Record{
			TaskID: taskID,
			Status: StatusFailed,
			Pid:    pid,
			Error:  err.Error(),
		})
		m.metrics.TasksCompleted.WithLabelValues(string(StatusFailed)).Inc()
		m.logger.Error("background task failed",
			"task_id", taskID,
			"pid", pid,
			"error", err)
		return
	}

	m.records.SetRecord(taskID, Record{
		TaskID: taskID,
		Status: StatusCompleted,
		Pid:    resp.Pid,
		Result: &resp,
	})
	m.metrics.TasksCompleted.WithLabelValues(string(StatusCompleted)).Inc()
	m.logger.Info("background task completed",
		"task_id", taskID,
		"pid", resp.Pid,
		"success", resp.Success)
}

// execute runs the search with panic containment so a panicking
// orchestration still yields exactly one FAILED transition.
func (m *Manager) execute(taskID, pid string) (resp domain.ServiceResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()
	return m.search.GetOffers(context.Background(), pid)
}

// GetResponse reads the task state for polling.
//
// Exactly one of the returns is meaningful: a status payload while the
// task is PROCESSING, the stored response once COMPLETED, or an error
// for every fault kind (not found, failed, result missing, unknown
// status).
func (m *Manager) GetResponse(taskID string) (*domain.ServiceResponse, *StatusPayload, error) {
	rec, ok := m.records.GetRecord(taskID)
	if !ok {
		m.logger.Warn("task not found", "task_id", taskID)
		return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	switch rec.Status {
	case StatusProcessing:
		m.logger.Info("task still processing", "task_id", taskID)
		return nil, &StatusPayload{TaskID: taskID, Status: StatusProcessing, Pid: rec.Pid}, nil

	case StatusCompleted:
		if rec.Result == nil {
			m.logger.Error("task completed but result is missing", "task_id", taskID)
			return nil, nil, fmt.Errorf("%w: %s", ErrTaskResultMissing, taskID)
		}
		m.logger.Info("task result retrieved",
			"task_id", taskID,
			"success", rec.Result.Success)
		return rec.Result, nil, nil

	case StatusFailed:
		msg := rec.Error
		if msg == "" {
			msg = "unknown error"
		}
		m.logger.Warn("task failed", "task_id", taskID, "error", msg)
		return nil, nil, &FailedError{Msg: msg}

	default:
		m.logger.Error("unknown task status",
			"task_id", taskID,
			"status", rec.Status)
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTaskStatus, rec.Status)
	}
}

// Wait blocks until every in-flight task has written its terminal
// record. Used by tests and graceful shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

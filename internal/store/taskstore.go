package store

import (
	"log/slog"

	"github.com/pkazmin/flysearch-api/internal/task"
)

// TaskStore implements task.RecordStore with an in-process TTL cache as
// the fast path and an optional shared file store as the cross-process
// fallback.
//
// File store failures are logged and swallowed: in-process visibility
// is preserved even when durable persistence fails, trading
// cross-process consistency for availability.
type TaskStore struct {
	mem    *Cache
	file   *FileTaskStore
	logger *slog.Logger
}

// NewTaskStore combines the caches. file may be nil to disable the
// cross-process path.
func NewTaskStore(mem *Cache, file *FileTaskStore, logger *slog.Logger) *TaskStore {
	return &TaskStore{mem: mem, file: file, logger: logger}
}

// SetRecord writes through to both layers.
func (s *TaskStore) SetRecord(taskID string, rec task.Record) {
	s.mem.Set(taskID, rec)
	if s.file == nil {
		return
	}
	if err := s.file.Write(taskID, rec); err != nil {
		s.logger.Warn("failed to persist task record",
			"task_id", taskID,
			"error", err)
	}
}

// GetRecord reads from memory first, falling back to the shared file
// store and re-warming memory on a hit.
func (s *TaskStore) GetRecord(taskID string) (task.Record, bool) {
	if v, ok := s.mem.Get(taskID); ok {
		rec, ok := v.(task.Record)
		return rec, ok
	}
	if s.file == nil {
		return task.Record{}, false
	}
	rec, ok := s.file.Read(taskID)
	if !ok {
		return task.Record{}, false
	}
	s.mem.Set(taskID, rec)
	return rec, true
}

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pkazmin/flysearch-api/internal/task"
)

// Task ids are uuids, but the id reaches this layer straight from the
// query string and becomes a file name. Anything else is rejected before
// touching the filesystem.
var validTaskID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// fileRecord wraps a task record with its write timestamp so readers
// can prune stale entries without a background sweeper.
type fileRecord struct {
	WrittenAt time.Time   `json:"written_at"`
	Record    task.Record `json:"record"`
}

// FileTaskStore persists task records as per-task JSON files in a
// shared directory so every server worker process observes the same
// task state. Records older than the TTL are pruned on access.
type FileTaskStore struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger

	now func() time.Time
}

// NewFileTaskStore creates the directory if needed and returns the
// store.
func NewFileTaskStore(dir string, ttl time.Duration, logger *slog.Logger) (*FileTaskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create task store directory %s: %w", dir, err)
	}
	return &FileTaskStore{dir: dir, ttl: ttl, logger: logger, now: time.Now}, nil
}

// Write stores the record, stamped with the current time. The write is
// atomic: a temp file renamed into place, so concurrent readers never
// see a partial record.
func (s *FileTaskStore) Write(taskID string, rec task.Record) error {
	if !validTaskID.MatchString(taskID) {
		return fmt.Errorf("invalid task id %q", taskID)
	}

	data, err := json.Marshal(fileRecord{WrittenAt: s.now(), Record: rec})
	if err != nil {
		return fmt.Errorf("failed to encode task record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, taskID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp record file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write task record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close task record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(taskID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish task record: %w", err)
	}
	return nil
}

// Read returns the stored record, pruning it (and reporting a miss)
// when it has outlived the TTL.
func (s *FileTaskStore) Read(taskID string) (task.Record, bool) {
	if !validTaskID.MatchString(taskID) {
		return task.Record{}, false
	}

	data, err := os.ReadFile(s.path(taskID))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read task record",
				"task_id", taskID,
				"error", err)
		}
		return task.Record{}, false
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("corrupt task record, removing",
			"task_id", taskID,
			"error", err)
		s.remove(taskID)
		return task.Record{}, false
	}

	if s.now().Sub(rec.WrittenAt) >= s.ttl {
		s.remove(taskID)
		return task.Record{}, false
	}
	return rec.Record, true
}

func (s *FileTaskStore) path(taskID string) string {
	return filepath.Join(s.dir, taskID+".json")
}

func (s *FileTaskStore) remove(taskID string) {
	if err := os.Remove(s.path(taskID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to prune task record",
			"task_id", taskID,
			"error", err)
	}
}

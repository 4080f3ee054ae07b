package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkazmin/flysearch-api/internal/domain"
	"github.com/pkazmin/flysearch-api/internal/platform/metrics"
)

// mapRecordStore is a minimal in-memory RecordStore for manager tests.
type mapRecordStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func newMapRecordStore() *mapRecordStore {
	return &mapRecordStore{records: make(map[string]Record)}
}

func (s *mapRecordStore) GetRecord(taskID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[taskID]
	return rec, ok
}

func (s *mapRecordStore) SetRecord(taskID string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[taskID] = rec
}

// fakeSearcher blocks until released so tests can observe the
// PROCESSING state deterministically.
type fakeSearcher struct {
	resp    domain.ServiceResponse
	err     error
	panicV  any
	release chan struct{}
}

func (f *fakeSearcher) GetOffers(_ context.Context, pid string) (domain.ServiceResponse, error) {
	if f.release != nil {
		<-f.release
	}
	if f.panicV != nil {
		panic(f.panicV)
	}
	resp := f.resp
	if resp.Pid == "" {
		resp.Pid = pid
	}
	return resp, f.err
}

func newTestManager(search Searcher, records RecordStore) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(search, records, logger, metrics.New("test", nil))
}

func TestSubmitRecordsProcessingSynchronously(t *testing.T) {
	release := make(chan struct{})
	searcher := &fakeSearcher{
		resp:    domain.ServiceResponse{Success: true, Result: map[string][]domain.FlightOffer{}},
		release: release,
	}
	records := newMapRecordStore()
	mgr := newTestManager(searcher, records)

	taskID := mgr.Submit(context.Background(), "pid-1")
	require.NotEmpty(t, taskID)

	resp, status, err := mgr.GetResponse(taskID)
	require.NoError(t, err)
	assert.Nil(t, resp)
	require.NotNil(t, status)
	assert.Equal(t, StatusProcessing, status.Status)
	assert.Equal(t, taskID, status.TaskID)
	assert.Equal(t, "pid-1", status.Pid)

	close(release)
	mgr.Wait()
}

func TestTaskCompletes(t *testing.T) {
	searcher := &fakeSearcher{
		resp: domain.ServiceResponse{
			Success: true,
			Pid:     "pid-1",
			Result: map[string][]domain.FlightOffer{
				"MOWLED20251217": {{Key: "sig", MinPrice: 1592}},
			},
		},
	}
	mgr := newTestManager(searcher, newMapRecordStore())

	taskID := mgr.Submit(context.Background(), "pid-1")
	mgr.Wait()

	resp, status, err := mgr.GetResponse(taskID)
	require.NoError(t, err)
	assert.Nil(t, status)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Result["MOWLED20251217"], 1)
}

func TestTaskFails(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("provider exploded")}
	mgr := newTestManager(searcher, newMapRecordStore())

	taskID := mgr.Submit(context.Background(), "pid-1")
	mgr.Wait()

	resp, status, err := mgr.GetResponse(taskID)
	assert.Nil(t, resp)
	assert.Nil(t, status)
	require.Error(t, err)

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "provider exploded", failed.Msg)
}

func TestTaskPanicBecomesFailed(t *testing.T) {
	searcher := &fakeSearcher{panicV: "boom"}
	mgr := newTestManager(searcher, newMapRecordStore())

	taskID := mgr.Submit(context.Background(), "pid-1")
	mgr.Wait()

	_, _, err := mgr.GetResponse(taskID)
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, failed.Msg, "boom")
}

func TestGetResponseUnknownTask(t *testing.T) {
	mgr := newTestManager(&fakeSearcher{}, newMapRecordStore())

	_, _, err := mgr.GetResponse("no-such-task")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetResponseCompletedWithoutResult(t *testing.T) {
	records := newMapRecordStore()
	records.SetRecord("t1", Record{TaskID: "t1", Status: StatusCompleted})
	mgr := newTestManager(&fakeSearcher{}, records)

	_, _, err := mgr.GetResponse("t1")
	assert.ErrorIs(t, err, ErrTaskResultMissing)
}

func TestGetResponseFailedWithoutMessage(t *testing.T) {
	records := newMapRecordStore()
	records.SetRecord("t1", Record{TaskID: "t1", Status: StatusFailed})
	mgr := newTestManager(&fakeSearcher{}, records)

	_, _, err := mgr.GetResponse("t1")
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "unknown error", failed.Msg)
}

func TestGetResponseUnknownStatus(t *testing.T) {
	records := newMapRecordStore()
	records.SetRecord("t1", Record{TaskID: "t1", Status: Status("limbo")})
	mgr := newTestManager(&fakeSearcher{}, records)

	_, _, err := mgr.GetResponse("t1")
	assert.ErrorIs(t, err, ErrUnknownTaskStatus)
}

func TestSubmitGeneratesUniqueIDs(t *testing.T) {
	mgr := newTestManager(&fakeSearcher{resp: domain.ServiceResponse{Success: true}}, newMapRecordStore())

	first := mgr.Submit(context.Background(), "pid-1")
	second := mgr.Submit(context.Background(), "pid-2")
	mgr.Wait()

	assert.NotEqual(t, first, second)
}

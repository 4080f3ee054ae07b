package provider

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/pkazmin/flysearch-api/internal/domain"
)

// stubTaskID is the session id the stub hands out for every search.
const stubTaskID = "2907fb1b501f1dd2535b5ce8a4a23849"

// ErrSessionNotFound is returned by the stub iterator when asked for a
// session id it never issued.
var ErrSessionNotFound = errors.New("task not found")

//go:embed chunks.json
var fixtureChunks []byte

// StubConfig controls the pacing and flakiness of the fixture stub.
type StubConfig struct {
	// StartDelay is how long StartSearch blocks before answering.
	StartDelay time.Duration

	// ChunkDelay is how long each iterator advance blocks. The sleep is
	// deliberately uninterruptible so the stub behaves like the real
	// provider's blocking wait.
	ChunkDelay time.Duration

	// Rand drives the stub's misbehavior: failed session starts and
	// heartbeat chunks, each on a coin flip. A nil Rand makes the stub
	// fully deterministic: starts always succeed and no heartbeats are
	// produced.
	Rand *rand.Rand
}

// Stub is a fixture-replaying Provider. Each session replays the full
// embedded chunk sequence from the beginning.
type Stub struct {
	chunks []domain.Chunk
	cfg    StubConfig
	mu     sync.Mutex
}

// NewStub builds a stub replaying the embedded fixture chunks.
func NewStub(cfg StubConfig) (*Stub, error) {
	var chunks []domain.Chunk
	if err := json.Unmarshal(fixtureChunks, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode fixture chunks: %w", err)
	}
	return &Stub{chunks: chunks, cfg: cfg}, nil
}

// NewStubWithChunks builds a stub replaying the given chunks. Intended
// for tests that need full control over the payloads.
func NewStubWithChunks(chunks []domain.Chunk, cfg StubConfig) *Stub {
	return &Stub{chunks: chunks, cfg: cfg}
}

// StartSearch opens a session after the configured delay. In flaky mode
// it fails on a coin flip, the way the real provider intermittently
// does.
func (s *Stub) StartSearch(ctx context.Context) (StartSearchResponse, error) {
	if s.cfg.StartDelay > 0 {
		select {
		case <-time.After(s.cfg.StartDelay):
		case <-ctx.Done():
			return StartSearchResponse{}, ctx.Err()
		}
	}
	if s.coin() {
		return StartSearchResponse{Success: false, ErrorMessage: "some_error"}, nil
	}
	return StartSearchResponse{Success: true, TaskID: stubTaskID}, nil
}

// GetChunk returns an iterator over the fixture sequence. An unknown
// task id only surfaces on the first advance.
func (s *Stub) GetChunk(_ context.Context, taskID string) ChunkIterator {
	return &stubIterator{stub: s, taskID: taskID}
}

// coin flips the configured rand source; deterministic stubs never
// misbehave.
func (s *Stub) coin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Rand == nil {
		return false
	}
	return s.cfg.Rand.Intn(2) == 1
}

type stubIterator struct {
	stub   *Stub
	taskID string
	index  int
}

func (it *stubIterator) Next(_ context.Context) (domain.Chunk, bool, error) {
	if it.taskID != stubTaskID {
		return nil, false, fmt.Errorf("%w: %s", ErrSessionNotFound, it.taskID)
	}
	if it.index >= len(it.stub.chunks) {
		return nil, false, nil
	}
	if it.stub.cfg.ChunkDelay > 0 {
		// Blocking on purpose: the adapter is what keeps this wait off
		// the caller's path.
		time.Sleep(it.stub.cfg.ChunkDelay)
	}
	if it.stub.coin() {
		return domain.Chunk{}, true, nil
	}
	chunk := it.stub.chunks[it.index]
	it.index++
	return chunk, true, nil
}

package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkazmin/flysearch-api/internal/domain"
)

// Result is one item of a chunk stream: a chunk, or the terminal error
// that ended the stream early.
type Result struct {
	Chunk domain.Chunk
	Err   error
}

// AdapterConfig tunes the stream adapter.
type AdapterConfig struct {
	// MaxConcurrentStreams caps the number of provider sessions being
	// drained at once, process-wide. A caller blocks until a slot frees.
	MaxConcurrentStreams int

	// QueuePollTimeout is how long one poll of the internal chunk queue
	// waits before looping, so cancellation is noticed promptly.
	QueuePollTimeout time.Duration

	// StreamJoinTimeout bounds the wait for the producer goroutine on
	// stream teardown. Expiry only stops the waiting: the producer may
	// keep running detached and is logged as a warning.
	StreamJoinTimeout time.Duration
}

// DefaultAdapterConfig returns the adapter defaults.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		MaxConcurrentStreams: 10,
		QueuePollTimeout:     100 * time.Millisecond,
		StreamJoinTimeout:    time.Second,
	}
}

// Adapter turns the provider's blocking, chunk-at-a-time interface into
// a non-blocking stream. Each stream owns one producer goroutine that
// runs the provider iterator to completion; a bounded slot gate keeps
// the number of such producers capped process-wide.
type Adapter struct {
	provider Provider
	cfg      AdapterConfig
	slots    chan struct{}
	logger   *slog.Logger
}

// NewAdapter wraps the given provider. Zero config fields fall back to
// the defaults.
func NewAdapter(p Provider, cfg AdapterConfig, logger *slog.Logger) *Adapter {
	def := DefaultAdapterConfig()
	if cfg.MaxConcurrentStreams <= 0 {
		cfg.MaxConcurrentStreams = def.MaxConcurrentStreams
	}
	if cfg.QueuePollTimeout <= 0 {
		cfg.QueuePollTimeout = def.QueuePollTimeout
	}
	if cfg.StreamJoinTimeout <= 0 {
		cfg.StreamJoinTimeout = def.StreamJoinTimeout
	}
	return &Adapter{
		provider: p,
		cfg:      cfg,
		slots:    make(chan struct{}, cfg.MaxConcurrentStreams),
		logger:   logger,
	}
}

// StartSearch opens a provider session. Provider errors are folded into
// an unsuccessful response rather than returned: a failed start is a
// reportable outcome, not a system fault.
func (a *Adapter) StartSearch(ctx context.Context) (StartSearchResponse, error) {
	resp, err := a.provider.StartSearch(ctx)
	if err != nil {
		a.logger.Error("failed to start search", "error", err)
		return StartSearchResponse{Success: false, ErrorMessage: err.Error()}, nil
	}
	return resp, nil
}

// StreamChunks streams the session's chunks without letting the
// provider's blocking waits stall the caller. Empty heartbeat chunks
// are filtered out. The returned channel closes when the stream ends;
// on failure the last Result carries the error. Cancelling ctx unwinds
// the stream, still joining the producer (bounded) and releasing the
// concurrency slot; the cancellation itself is delivered as the final
// Result so a truncated stream is never mistaken for a completed one.
// Callers must drain the channel until it closes.
func (a *Adapter) StreamChunks(ctx context.Context, taskID string) <-chan Result {
	out := make(chan Result)
	go a.stream(ctx, taskID, out)
	return out
}

func (a *Adapter) stream(ctx context.Context, taskID string, out chan<- Result) {
	defer close(out)

	// Wait for a free stream slot; the gate bounds concurrent provider
	// drains across the whole process.
	select {
	case a.slots <- struct{}{}:
	case <-ctx.Done():
		out <- Result{Err: ctx.Err()}
		return
	}

	queue := make(chan Result, 16)
	stop := make(chan struct{})
	done := make(chan struct{})
	go a.produce(taskID, queue, stop, done)

	defer func() {
		close(stop)
		a.join(taskID, done)
		<-a.slots
	}()

	timer := time.NewTimer(a.cfg.QueuePollTimeout)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(a.cfg.QueuePollTimeout)

		select {
		case res, ok := <-queue:
			if !ok {
				return
			}
			if res.Err != nil {
				a.logger.Error("provider stream failed",
					"task_id", taskID,
					"error", res.Err)
				out <- res
				return
			}
			if !a.emit(ctx, out, res) {
				a.logger.Info("chunk stream cancelled", "task_id", taskID)
				out <- Result{Err: ctx.Err()}
				return
			}
		case <-timer.C:
			// Queue idle; loop so a cancelled context is picked up even
			// while the producer sits in a long blocking wait.
		case <-ctx.Done():
			a.logger.Info("chunk stream cancelled", "task_id", taskID)
			out <- Result{Err: ctx.Err()}
			return
		}
	}
}

// produce runs the provider iterator to completion, forwarding non-empty
// chunks into the queue. It is the only writer of queue and closes it on
// exit; a closed stop channel tells it the consumer is gone.
func (a *Adapter) produce(taskID string, queue chan<- Result, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(queue)

	it := a.provider.GetChunk(context.Background(), taskID)
	for {
		chunk, ok, err := it.Next(context.Background())
		if err != nil {
			a.push(queue, stop, Result{Err: err})
			return
		}
		if !ok {
			return
		}
		if len(chunk) == 0 {
			// Provider heartbeat, not data.
			continue
		}
		if !a.push(queue, stop, Result{Chunk: chunk}) {
			return
		}
	}
}

func (a *Adapter) push(queue chan<- Result, stop <-chan struct{}, res Result) bool {
	select {
	case queue <- res:
		return true
	case <-stop:
		return false
	}
}

func (a *Adapter) emit(ctx context.Context, out chan<- Result, res Result) bool {
	select {
	case out <- res:
		return true
	case <-ctx.Done():
		return false
	}
}

// join waits for the producer goroutine with a bounded timeout. A
// timeout is non-fatal: the producer finishes detached and the slot is
// released regardless.
func (a *Adapter) join(taskID string, done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(a.cfg.StreamJoinTimeout):
		a.logger.Warn("provider stream did not finish within join timeout",
			"task_id", taskID,
			"timeout", a.cfg.StreamJoinTimeout)
	}
}

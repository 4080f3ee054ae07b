// Package provider defines the external flight search provider contract,
// a fixture-replaying stub implementation of it, and the stream adapter
// that isolates the provider's blocking chunk waits from callers.
package provider

import (
	"context"

	"github.com/pkazmin/flysearch-api/internal/domain"
)

// StartSearchResponse is the provider's reply to a search start request.
type StartSearchResponse struct {
	Success      bool   `json:"success"`
	TaskID       string `json:"task_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ChunkIterator walks the chunks of one provider search session.
//
// Next may block for a long, variable time per advance (order of
// seconds) and occasionally returns an empty heartbeat chunk that
// callers must filter. The sequence is finite and not restartable.
type ChunkIterator interface {
	// Next returns the next chunk. ok is false once the sequence is
	// exhausted; a non-nil error terminates the sequence.
	Next(ctx context.Context) (chunk domain.Chunk, ok bool, err error)
}

// Provider is the external search API surface the service consumes.
type Provider interface {
	// StartSearch opens a provider-side search session.
	StartSearch(ctx context.Context) (StartSearchResponse, error)

	// GetChunk returns the chunk iterator for a previously started
	// session. Session validity is only checked on the first advance.
	GetChunk(ctx context.Context, taskID string) ChunkIterator
}

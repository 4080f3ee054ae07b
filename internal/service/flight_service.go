package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkazmin/flysearch-api/internal/domain"
	"github.com/pkazmin/flysearch-api/internal/platform/metrics"
	"github.com/pkazmin/flysearch-api/internal/provider"
)

// ChunkStreamer is the provider-facing surface the search service
// consumes: session start plus a non-blocking chunk stream. Satisfied
// by provider.Adapter.
type ChunkStreamer interface {
	StartSearch(ctx context.Context) (provider.StartSearchResponse, error)
	StreamChunks(ctx context.Context, taskID string) <-chan provider.Result
}

// FlightSearchService drives one search session end to end: start the
// provider session, stream chunks, convert each one and merge the
// offers into an accumulating result.
type FlightSearchService struct {
	api       ChunkStreamer
	converter *FlightOfferConverter
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewFlightSearchService wires the orchestrator.
func NewFlightSearchService(
	api ChunkStreamer,
	converter *FlightOfferConverter,
	logger *slog.Logger,
	m *metrics.Metrics,
) *FlightSearchService {
	if converter == nil {
		converter = NewFlightOfferConverter()
	}
	return &FlightSearchService{
		api:       api,
		converter: converter,
		logger:    logger,
		metrics:   m,
	}
}

// GetOffers executes one full search and returns the normalized
// response. A blank pid gets a generated one.
//
// A provider-reported start failure (or a missing session id) is a
// normal, reportable outcome: it yields success=false with an empty
// result and a nil error. A failure of the chunk stream itself is an
// orchestration error and is returned as such.
func (s *FlightSearchService) GetOffers(ctx context.Context, pid string) (domain.ServiceResponse, error) {
	if pid == "" {
		pid = generatePid()
	}
	started := time.Now()
	s.metrics.SearchesStarted.Inc()

	start, err := s.api.StartSearch(ctx)
	if err != nil {
		// The adapter folds provider errors into the response, so this
		// only fires for transport-level surprises.
		s.logger.Error("start_search errored", "pid", pid, "error", err)
		return domain.ServiceResponse{Success: false, Pid: pid, Result: map[string][]domain.FlightOffer{}}, nil
	}
	s.logger.Info("start_search finished",
		"pid", pid,
		"success", start.Success,
		"task_id", start.TaskID)

	if !start.Success || start.TaskID == "" {
		s.logger.Error("start_search failed",
			"pid", pid,
			"error_message", start.ErrorMessage)
		return domain.ServiceResponse{Success: false, Pid: pid, Result: map[string][]domain.FlightOffer{}}, nil
	}

	aggregated := make(map[string][]domain.FlightOffer)
	for res := range s.api.StreamChunks(ctx, start.TaskID) {
		if res.Err != nil {
			return domain.ServiceResponse{}, fmt.Errorf("chunk stream for pid %s: %w", pid, res.Err)
		}
		offers := s.convertChunk(res.Chunk)
		mergeOffers(aggregated, offers)
		s.metrics.ChunksProcessed.Inc()
		s.logger.Debug("chunk processed",
			"pid", pid,
			"chunk_offers", countOffers(offers))
	}
	if err := ctx.Err(); err != nil {
		// A cancelled stream may hold only part of the session's chunks;
		// it must never be reported (or cached) as a completed search.
		return domain.ServiceResponse{}, fmt.Errorf("search cancelled for pid %s: %w", pid, err)
	}

	resp := domain.ServiceResponse{
		Success: countOffers(aggregated) > 0,
		Pid:     pid,
		Result:  aggregated,
	}
	s.metrics.SearchDuration.Observe(time.Since(started).Seconds())
	s.logger.Info("search finished",
		"pid", pid,
		"success", resp.Success,
		"offers_count", countOffers(aggregated))
	return resp, nil
}

// convertChunk shields the stream from a bad chunk: a conversion panic
// is logged and the chunk contributes nothing.
func (s *FlightSearchService) convertChunk(chunk domain.Chunk) (offers map[string][]domain.FlightOffer) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("failed to convert chunk", "panic", r)
			offers = map[string][]domain.FlightOffer{}
		}
	}()
	return s.converter.ConvertChunk(chunk)
}

// mergeOffers appends new offers to the accumulated list per route key.
// Offers are never replaced or deduplicated across chunks: the provider
// may legitimately re-send a ticket and multiplicity is preserved.
func mergeOffers(target, next map[string][]domain.FlightOffer) {
	for key, offers := range next {
		target[key] = append(target[key], offers...)
	}
}

func countOffers(offers map[string][]domain.FlightOffer) int {
	total := 0
	for _, list := range offers {
		total += len(list)
	}
	return total
}

func generatePid() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

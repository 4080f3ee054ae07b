package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pkazmin/flysearch-api/internal/domain"
	"github.com/pkazmin/flysearch-api/internal/platform/metrics"
	"github.com/pkazmin/flysearch-api/internal/store"
)

// FlightSearcher executes one full flight search.
type FlightSearcher interface {
	GetOffers(ctx context.Context, pid string) (domain.ServiceResponse, error)
}

// FlightHandler handles the synchronous search endpoint.
type FlightHandler struct {
	search  FlightSearcher
	cache   *store.Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewFlightHandler creates a new FlightHandler. cache holds recent
// responses keyed by pid.
func NewFlightHandler(search FlightSearcher, cache *store.Cache, logger *slog.Logger, m *metrics.Metrics) *FlightHandler {
	return &FlightHandler{search: search, cache: cache, logger: logger, metrics: m}
}

// GetFlights handles GET /get_flights requests: it blocks until the
// full search completes and returns the normalized response. Results
// are cached per pid for the configured response TTL.
func (h *FlightHandler) GetFlights(w http.ResponseWriter, r *http.Request) {
	pid := r.URL.Query().Get("pid")
	cacheKey := store.BuildCacheKey("flights", pid)

	if cached, ok := h.cache.Get(cacheKey); ok {
		h.metrics.CacheHits.Inc()
		h.logger.Info("get_flights cache hit", "pid", pid)
		RespondWithJSON(w, r, http.StatusOK, cached)
		return
	}

	h.logger.Info("get_flights called", "pid", pid)
	resp, err := h.search.GetOffers(r.Context(), pid)
	if err != nil {
		h.logger.Error("get_flights failed", "pid", pid, "error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "search failed")
		return
	}

	h.cache.Set(cacheKey, resp)
	RespondWithJSON(w, r, http.StatusOK, resp)
}

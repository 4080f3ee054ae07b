package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkazmin/flysearch-api/internal/config"
	"github.com/pkazmin/flysearch-api/internal/platform/metrics"
	"github.com/pkazmin/flysearch-api/internal/provider"
	"github.com/pkazmin/flysearch-api/internal/service"
	"github.com/pkazmin/flysearch-api/internal/store"
	"github.com/pkazmin/flysearch-api/internal/task"
)

// application holds every long-lived dependency, constructed once at
// startup and passed by reference. There is no global mutable state.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	responseCache *store.Cache
	taskStore     *store.TaskStore
	flightService *service.FlightSearchService
	taskManager   *task.Manager
}

// newApplication wires the full dependency graph.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	registry := prometheus.NewRegistry()
	m := metrics.New("flysearch", registry)

	var src *rand.Rand
	if !cfg.Provider.Deterministic {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	stub, err := provider.NewStub(provider.StubConfig{
		StartDelay: cfg.Provider.StartDelay,
		ChunkDelay: cfg.Provider.ChunkDelay,
		Rand:       src,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build provider stub: %w", err)
	}

	adapter := provider.NewAdapter(stub, provider.AdapterConfig{
		MaxConcurrentStreams: cfg.Adapter.MaxConcurrentStreams,
		QueuePollTimeout:     cfg.Adapter.QueuePollTimeout,
		StreamJoinTimeout:    cfg.Adapter.StreamJoinTimeout,
	}, logger)

	flightService := service.NewFlightSearchService(
		adapter,
		service.NewFlightOfferConverter(),
		logger,
		m,
	)

	var fileStore *store.FileTaskStore
	if cfg.Cache.TaskDir != "" {
		fileStore, err = store.NewFileTaskStore(cfg.Cache.TaskDir, cfg.Cache.TaskTTL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build file task store: %w", err)
		}
	}
	taskStore := store.NewTaskStore(
		store.NewCache(cfg.Cache.TaskTTL, cfg.Cache.TaskSize),
		fileStore,
		logger,
	)

	return &application{
		config:        cfg,
		logger:        logger,
		registry:      registry,
		metrics:       m,
		responseCache: store.NewCache(cfg.Cache.ResponseTTL, cfg.Cache.ResponseSize),
		taskStore:     taskStore,
		flightService: flightService,
		taskManager:   task.NewManager(flightService, taskStore, logger, m),
	}, nil
}

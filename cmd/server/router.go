package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkazmin/flysearch-api/internal/api"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	flightHandler := api.NewFlightHandler(
		app.flightService,
		app.responseCache,
		app.logger,
		app.metrics,
	)
	taskHandler := api.NewTaskHandler(app.taskManager, app.logger)

	r.Get("/get_flights", flightHandler.GetFlights)
	r.Post("/start_search", taskHandler.StartSearch)
	r.Get("/get_result", taskHandler.GetResult)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		app.registry,
		promhttp.HandlerOpts{},
	))

	return r
}

// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/docpivot/docpivot/cmd/docpivot-api/handlers"
	"github.com/docpivot/docpivot/cmd/docpivot-api/middleware"
	"github.com/docpivot/docpivot/internal/config"
	"github.com/docpivot/docpivot/internal/event"
	"github.com/docpivot/docpivot/internal/format"
	"github.com/docpivot/docpivot/internal/job"
	"github.com/docpivot/docpivot/internal/observability"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(
	logger *observability.Logger,
	cfg *config.Config,
	engine *job.Engine,
	graph *format.Graph,
	broadcaster *event.Broadcaster,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if cfg.CORS.Enabled {
		r.Use(middleware.CORS(cfg.CORS.Origins))
	}
	// No global timeout middleware: the event stream is long-lived and
	// conversions have their own engine-side timeout.

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"docpivot"}`))
	})

	convertHandler := handlers.NewConvertHandler(logger, engine)
	formatsHandler := handlers.NewFormatsHandler(logger, graph)
	eventsHandler := handlers.NewEventsHandler(logger, broadcaster)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", convertHandler.Submit)

		r.Route("/jobs/{jobID}", func(r chi.Router) {
			r.Get("/", convertHandler.Status)
			r.Get("/result", convertHandler.Result)
		})

		r.Get("/formats", formatsHandler.List)
		r.Get("/events", eventsHandler.Stream)
	})

	return r
}

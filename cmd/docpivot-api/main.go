// Package main provides the docpivot API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/docpivot/docpivot/internal/config"
	"github.com/docpivot/docpivot/internal/convert"
	"github.com/docpivot/docpivot/internal/event"
	"github.com/docpivot/docpivot/internal/format"
	"github.com/docpivot/docpivot/internal/job"
	"github.com/docpivot/docpivot/internal/observability"
)

func main() {
	// Local .env files are optional.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "docpivot",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Int("max_concurrent_jobs", cfg.Conversion.MaxConcurrentJobs).
		Dur("retention_window", cfg.Conversion.RetentionWindow).
		Msg("Starting docpivot API")

	// Wire the conversion core. Everything is in-memory and lives for
	// the process lifetime.
	graph := format.NewGraph()
	registry := convert.NewRegistry()

	// Every edge the graph will route through must have a converter.
	for _, from := range format.All() {
		for _, to := range format.All() {
			if graph.HasEdge(from, to) && !registry.Supports(from, to) {
				logger.Fatal().
					Str("from", string(from)).
					Str("to", string(to)).
					Msg("No converter registered for graph edge")
			}
		}
	}

	store := job.NewStore(logger)
	broadcaster := event.NewBroadcaster(logger, event.Config{
		BufferCapacity:      cfg.Events.BufferCapacity,
		HeartbeatInterval:   cfg.Events.HeartbeatInterval,
		InactivityTimeout:   cfg.Events.InactivityTimeout,
		MaxConsecutiveDrops: cfg.Events.MaxConsecutiveDrops,
		MaxSubscribers:      cfg.Events.MaxSubscribers,
	})
	engine := job.NewEngine(logger, store, graph, registry, broadcaster, job.EngineConfig{
		MaxPayloadBytes:   cfg.Conversion.MaxPayloadBytes,
		Timeout:           cfg.Conversion.Timeout,
		MaxConcurrentJobs: cfg.Conversion.MaxConcurrentJobs,
		RetentionWindow:   cfg.Conversion.RetentionWindow,
		EvictInterval:     cfg.Conversion.EvictInterval,
	})

	// Background loops: heartbeats/pruning and job eviction.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go broadcaster.Run(bgCtx)
	go engine.RunJanitor(bgCtx)

	router := NewRouter(logger, cfg, engine, graph, broadcaster)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Stop background loops first so event subscribers drain.
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// SynthMob coordination server — the authoritative in-memory state for the
// agent arena, its HTTP API, and the live event streams.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/synthmob/synthmob/pkg/api"
	"github.com/synthmob/synthmob/pkg/config"
	"github.com/synthmob/synthmob/pkg/core"
	"github.com/synthmob/synthmob/pkg/events"
	"github.com/synthmob/synthmob/pkg/observe"
	"github.com/synthmob/synthmob/pkg/version"
)

// meterSubscriber counts every published arena event. It rides the bus like
// any other subscriber, keeping the publish path metrics-agnostic.
type meterSubscriber struct {
	metrics *observe.Metrics
}

func (m meterSubscriber) Deliver(event string, _ []byte) error {
	m.metrics.RecordEvent(context.Background(), event)
	return nil
}

func (m meterSubscriber) Close() {}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	envFile := flag.String("env-file", ".env", "Path to an optional .env file")
	flag.Parse()

	// Load .env before config so its variables participate in the overlay.
	if err := godotenv.Load(*envFile); err != nil {
		slog.Info("No .env file loaded, continuing with existing environment",
			"path", *envFile)
	} else {
		slog.Info("Loaded environment", "path", *envFile)
	}

	// 1. Configuration and logging
	cfg, err := config.Initialize()
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogLevel()))

	slog.Info("Starting SynthMob",
		"version", version.Full(),
		"port", cfg.Server.Port)

	ctx := context.Background()

	// 2. Metrics provider (OTel instruments surfaced on /metrics)
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version.GitCommit,
	})
	if err != nil {
		slog.Error("Failed to initialize metrics provider", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slog.Error("Error shutting down metrics provider", "error", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// 3. Event bus and coordination core
	bus := events.NewBus()
	bus.Subscribe(meterSubscriber{metrics: metrics})

	coordination := core.New(bus, core.Options{
		Ritual: core.RitualConfig{
			Interval:         cfg.Ritual.Interval,
			NominateDuration: cfg.Ritual.NominateDuration,
			VoteDuration:     cfg.Ritual.VoteDuration,
			ResultDisplay:    cfg.Ritual.ResultDisplay,
		},
	})
	slog.Info("Coordination core initialized")

	// 4. Background cadences: movement finalization and ritual phases
	scheduler := core.NewSchedulerWithCadence(coordination,
		cfg.Wayfinding.TickInterval, core.RitualCheckInterval)
	scheduler.Start(ctx)

	// 5. HTTP server
	httpServer := api.NewServer(cfg, coordination, bus)
	httpServer.SetMetrics(metrics)
	httpServer.SetReadyCheck(scheduler.Running)

	// 6. Start HTTP server (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("SynthMob started successfully")

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown: stop the cadences, detach stream consumers so
	// their handlers return, then drain the HTTP server.
	scheduler.Stop()
	bus.Reset()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mimir/internal/api"
	"github.com/starford/mimir/internal/cardservice"
	"github.com/starford/mimir/internal/cardstore"
	"github.com/starford/mimir/internal/fsrs"
	"github.com/starford/mimir/internal/mcpserver"
	"github.com/starford/mimir/internal/sse"
)

// buildService opens the store and wires the FSRS scheduler into a card
// service. The returned cleanup releases the store's advisory lock.
func buildService(cfg *Config) (*cardservice.Service, *cardstore.Store, error) {
	sched, err := fsrs.NewScheduler(fsrs.Config{
		DesiredRetention:    cfg.Scheduler.DesiredRetention,
		MaximumIntervalDays: cfg.Scheduler.MaximumIntervalDays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init scheduler: %w", err)
	}

	store, err := cardstore.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open card store: %w", err)
	}

	svc := cardservice.NewService(store, sched, cfg.Scheduler.MaxCardsPerRequest)
	return svc, store, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if app.storePath != "" {
		cfg.Store.Path = app.storePath
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.Float64("desired_retention", cfg.Scheduler.DesiredRetention),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, store, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("Card store loaded", slog.Int("cards", store.Len()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API router.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, broker.PublishCardEvent)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the store file for external modification.
	g.Go(func() error {
		err := cardstore.Watch(gCtx, store, logger, func() {
			broker.Publish(sse.Event{Type: "store.external_change", Data: map[string]string{}})
		})
		if err != nil {
			logger.Warn("store watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunStdio starts the MCP server on stdin/stdout with the given options.
// The logger writes to stderr because stdout carries the protocol.
func RunStdio(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if app.storePath != "" {
		cfg.Store.Path = app.storePath
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, store, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Info("Card store loaded", slog.Int("cards", store.Len()),
		slog.String("store_path", cfg.Store.Path))
	logger.Info("Starting MCP server on stdio")

	return mcpserver.New(svc).ServeStdio()
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/bademirci/prediction-markets/internal/config"
	"github.com/bademirci/prediction-markets/internal/gamma"
	"github.com/bademirci/prediction-markets/internal/ingest"
	"github.com/bademirci/prediction-markets/internal/metrics"
	"github.com/bademirci/prediction-markets/internal/sink"
	"github.com/bademirci/prediction-markets/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingester.yaml", "path to config file")
	flag.Parse()

	// .env is optional; config expansion reads the environment either way.
	godotenv.Load()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	runID := uuid.NewString()
	logger.Info("starting ingester",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"run_id", runID,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	store, err := sink.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	logger.Info("database connected")

	// Create metadata API client
	gammaClient := gamma.NewClient(
		cfg.Gamma.BaseURL,
		gamma.WithBookURL(cfg.Gamma.BookURL),
		gamma.WithLogger(logger),
		gamma.WithTimeout(cfg.Gamma.Timeout),
		gamma.WithRetries(cfg.Gamma.MaxRetries, time.Second),
	)

	m := metrics.New()
	pipeline := ingest.New(cfg, gammaClient, store, m, logger)

	// Health and metrics server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHTTPHandler(cfg.Metrics.Path, m, store),
	}
	go func() {
		logger.Info("starting metrics server",
			"port", cfg.Metrics.Port,
			"path", cfg.Metrics.Path,
		)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("ingester running",
		"instance_id", cfg.Instance.ID,
		"feed_url", cfg.Feed.URL,
		"category_filter", cfg.Feed.CategoryFilter,
	)

	runErr := pipeline.Run(ctx)

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	if runErr != nil {
		logger.Error("pipeline exited with error", "error", runErr)
		os.Exit(1)
	}

	logger.Info("ingester stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// createHTTPHandler serves /health and the Prometheus metrics endpoint.
func createHTTPHandler(metricsPath string, m *metrics.Metrics, store sink.Store) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, m.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string            `json:"status"`
			Components map[string]string `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]string),
		}

		if err := store.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = "disconnected: " + err.Error()
		} else {
			health.Components["database"] = "connected"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}

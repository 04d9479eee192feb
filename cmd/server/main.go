package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aashmango/llama-fun/internal/analysis"
	"github.com/aashmango/llama-fun/internal/chunker"
	"github.com/aashmango/llama-fun/internal/config"
	"github.com/aashmango/llama-fun/internal/embedding"
	"github.com/aashmango/llama-fun/internal/metrics"
	"github.com/aashmango/llama-fun/internal/server"
	"github.com/aashmango/llama-fun/internal/session"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "llama-fun"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("address", cfg.Server.Address),
		slog.Int("max_concurrent_sessions", cfg.Server.MaxConcurrentSessions),
		slog.Int("window_size", cfg.Chunking.WindowSize),
		slog.Float64("similarity_threshold", cfg.Chunking.SimilarityThreshold),
		slog.String("embedding_endpoint", cfg.Embedding.Endpoint),
		slog.String("embedding_model", cfg.Embedding.Model),
		slog.String("analyzer_endpoint", cfg.Analyzer.Endpoint),
		slog.String("analyzer_model", cfg.Analyzer.Model),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize embedding client
	embeddingClient, err := embedding.NewClient(embedding.Config{
		Endpoint:   cfg.Embedding.Endpoint,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Timeout:    cfg.Embedding.GetTimeoutDuration(),
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		logger.Error("Failed to create embedding client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Embedding client initialized",
		slog.String("endpoint", cfg.Embedding.Endpoint),
		slog.String("model", cfg.Embedding.Model),
	)

	// Initialize structured analyzer client
	analyzerClient, err := analysis.NewClient(analysis.Config{
		Endpoint:      cfg.Analyzer.Endpoint,
		APIKey:        cfg.Analyzer.APIKey,
		Model:         cfg.Analyzer.Model,
		Timeout:       cfg.Analyzer.GetTimeoutDuration(),
		MaxRetries:    cfg.Analyzer.MaxRetries,
		MaxConcurrent: cfg.Analyzer.MaxConcurrent,
		Temperature:   cfg.Analyzer.Temperature,
	})
	if err != nil {
		logger.Error("Failed to create analyzer client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Analyzer client initialized",
		slog.String("endpoint", cfg.Analyzer.Endpoint),
		slog.String("model", cfg.Analyzer.Model),
	)

	// Initialize session manager
	sessionMgr, err := session.NewManager(session.ManagerConfig{
		ChunkingConfig: chunker.Config{
			WindowSize:          cfg.Chunking.WindowSize,
			SimilarityThreshold: cfg.Chunking.SimilarityThreshold,
			MinChunkSize:        cfg.Chunking.MinChunkSize,
		},
		IdleTimeout: cfg.Session.GetIdleTimeoutDuration(),
		MaxSessions: cfg.Server.MaxConcurrentSessions,
	}, embeddingClient, analyzerClient, logger, appMetrics)
	if err != nil {
		logger.Error("Failed to create session manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Session manager initialized",
		slog.Duration("idle_timeout", cfg.Session.GetIdleTimeoutDuration()),
		slog.Int("max_sessions", cfg.Server.MaxConcurrentSessions),
	)

	// Initialize HTTP API server
	httpServer := server.NewHTTPServer(cfg.Server, logger, cfg, sessionMgr,
		embeddingClient, analyzerClient, appMetrics)
	logger.Info("HTTP API server initialized",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)),
	)

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Stop session manager (cleanup sessions and stop background routines)
	sessionMgr.Stop()

	// Drain in-flight analysis requests
	if err := analyzerClient.Close(); err != nil {
		logger.Warn("Error closing analyzer client", slog.String("error", err.Error()))
	}

	// Get final statistics
	embeddingStats := embeddingClient.GetStats()
	analyzerStats := analyzerClient.GetStats()
	logger.Info("Final service statistics",
		slog.Uint64("embedding_requests", embeddingStats.TotalRequests),
		slog.Uint64("embedding_failures", embeddingStats.FailedRequests),
		slog.Uint64("analysis_requests", analyzerStats.TotalRequests),
		slog.Uint64("analysis_successes", analyzerStats.SuccessRequests),
		slog.Float64("analysis_success_rate", analyzerStats.SuccessRate),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

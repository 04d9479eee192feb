package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aashmango/llama-fun/internal/analysis"
	"github.com/aashmango/llama-fun/internal/config"
	"github.com/aashmango/llama-fun/internal/embedding"
	"github.com/aashmango/llama-fun/internal/metrics"
	"github.com/aashmango/llama-fun/internal/session"
)

// EmbeddingStatsSource exposes embedding client statistics for monitoring
// endpoints
type EmbeddingStatsSource interface {
	GetStats() embedding.ClientStats
}

// AnalyzerStatsSource exposes analyzer client statistics for monitoring
// endpoints
type AnalyzerStatsSource interface {
	GetStats() analysis.ClientStats
}

// HTTPServer provides the REST/WebSocket API: session lifecycle, utterance
// ingest, graph export, and monitoring endpoints
type HTTPServer struct {
	server     *http.Server
	logger     *slog.Logger
	config     *config.Config
	sessionMgr *session.Manager
	metrics    *metrics.Metrics

	embeddingStats EmbeddingStatsSource
	analyzerStats  AnalyzerStatsSource

	// Server state
	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg config.ServerConfig, logger *slog.Logger,
	appConfig *config.Config, sessionMgr *session.Manager,
	embeddingStats EmbeddingStatsSource, analyzerStats AnalyzerStatsSource,
	m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:         logger,
		config:         appConfig,
		sessionMgr:     sessionMgr,
		metrics:        m,
		embeddingStats: embeddingStats,
		analyzerStats:  analyzerStats,
		startTime:      time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Session lifecycle and ingest
	mux.HandleFunc("/sessions", h.withMetrics("/sessions", h.handleSessions))
	mux.HandleFunc("/sessions/", h.withMetrics("/sessions/{id}", h.handleSessionSubtree))

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Statistics endpoint
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		if h.metrics == nil {
			return
		}

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so the WebSocket upgrade
// works behind the metrics wrapper
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// Handler returns the server's root handler, used by tests
func (h *HTTPServer) Handler() http.Handler {
	return h.server.Handler
}

// handleSessions implements POST /sessions (create) and GET /sessions (list)
func (h *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		sess, err := h.sessionMgr.CreateSession()
		if err != nil {
			if errors.Is(err, session.ErrTooManySessions) {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         sess.ID,
			"start_time": sess.StartTime,
		})

	case http.MethodGet:
		summaries := h.sessionMgr.ListSessions()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total_sessions": len(summaries),
			"timestamp":      time.Now().UTC(),
			"sessions":       summaries,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSessionSubtree routes /sessions/{id}, /sessions/{id}/utterances,
// /sessions/{id}/snapshot, and /sessions/{id}/ingest
func (h *HTTPServer) handleSessionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if rest == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	sessionID := parts[0]

	sess, err := h.sessionMgr.GetSession(sessionID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	if len(parts) == 1 {
		h.handleSessionDetail(w, r, sess)
		return
	}

	switch parts[1] {
	case "utterances":
		h.handleUtterancePush(w, r, sess)
	case "snapshot":
		h.handleSnapshot(w, r, sess)
	case "ingest":
		h.handleIngest(w, r, sess)
	default:
		http.NotFound(w, r)
	}
}

// handleSessionDetail implements GET /sessions/{id} and DELETE /sessions/{id}
func (h *HTTPServer) handleSessionDetail(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sess.Summary())

	case http.MethodDelete:
		if err := h.sessionMgr.RemoveSession(sess.ID); err != nil {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// utteranceRequest is the body of POST /sessions/{id}/utterances and of each
// ingest WebSocket frame. A missing timestamp defaults to the arrival time.
type utteranceRequest struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// handleUtterancePush implements POST /sessions/{id}/utterances
func (h *HTTPServer) handleUtterancePush(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req utteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	utterance, err := sess.Ingest(r.Context(), req.Text, req.Timestamp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(utterance)
}

// handleSnapshot implements GET /sessions/{id}/snapshot
func (h *HTTPServer) handleSnapshot(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.Snapshot())
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)

	components := map[string]interface{}{
		"session_manager": map[string]interface{}{
			"status":          "running",
			"active_sessions": h.sessionMgr.GetActiveSessionCount(),
		},
	}

	if h.embeddingStats != nil {
		stats := h.embeddingStats.GetStats()
		components["embedding"] = map[string]interface{}{
			"status":          "running",
			"total_requests":  stats.TotalRequests,
			"failed_requests": stats.FailedRequests,
		}
	}

	if h.analyzerStats != nil {
		stats := h.analyzerStats.GetStats()
		components["analyzer"] = map[string]interface{}{
			"status":          "running",
			"total_requests":  stats.TotalRequests,
			"success_rate":    stats.SuccessRate,
			"active_requests": stats.ActiveRequests,
		}
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "llama-fun",
			"version": "1.0.0",
		},
		"components": components,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Return sanitized configuration (remove sensitive data)
	sanitizedConfig := map[string]interface{}{
		"server": map[string]interface{}{
			"port":                    h.config.Server.Port,
			"address":                 h.config.Server.Address,
			"max_concurrent_sessions": h.config.Server.MaxConcurrentSessions,
		},
		"chunking": map[string]interface{}{
			"window_size":          h.config.Chunking.WindowSize,
			"similarity_threshold": h.config.Chunking.SimilarityThreshold,
			"min_chunk_size":       h.config.Chunking.MinChunkSize,
		},
		"embedding": map[string]interface{}{
			"endpoint":   h.config.Embedding.Endpoint,
			"model":      h.config.Embedding.Model,
			"timeout":    h.config.Embedding.Timeout,
			"dimensions": h.config.Embedding.Dimensions,
			// Note: API key is intentionally omitted for security
		},
		"analyzer": map[string]interface{}{
			"endpoint":       h.config.Analyzer.Endpoint,
			"model":          h.config.Analyzer.Model,
			"timeout":        h.config.Analyzer.Timeout,
			"max_retries":    h.config.Analyzer.MaxRetries,
			"max_concurrent": h.config.Analyzer.MaxConcurrent,
			"temperature":    h.config.Analyzer.Temperature,
			// Note: API key is intentionally omitted for security
		},
		"session": map[string]interface{}{
			"idle_timeout": h.config.Session.IdleTimeout,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)

	stats := map[string]interface{}{
		"uptime":    uptime.String(),
		"timestamp": time.Now().UTC(),
		"sessions": map[string]interface{}{
			"active_count": h.sessionMgr.GetActiveSessionCount(),
		},
	}

	if h.embeddingStats != nil {
		stats["embedding"] = h.embeddingStats.GetStats()
	}
	if h.analyzerStats != nil {
		stats["analyzer"] = h.analyzerStats.GetStats()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Conversation Decision-Graph Service",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":                             "API documentation",
			"POST /sessions":                    "Create a conversation session",
			"GET /sessions":                     "List all active sessions",
			"GET /sessions/{id}":                "Get session summary",
			"DELETE /sessions/{id}":             "Remove a session",
			"POST /sessions/{id}/utterances":    "Push a single utterance",
			"GET /sessions/{id}/ingest":         "WebSocket utterance ingest stream",
			"GET /sessions/{id}/snapshot":       "Export full conversation data",
			"GET /health":                       "Service health check",
			"GET /config":                       "Get service configuration",
			"GET /stats":                        "Get service statistics",
			"GET /metrics":                      "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}

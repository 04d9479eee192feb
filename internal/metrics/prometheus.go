package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the decision-graph service
type Metrics struct {
	// Ingest metrics
	UtterancesIngested prometheus.Counter

	// Chunking metrics
	ChunksCreated    prometheus.Counter
	ChunkMemberCount prometheus.Histogram

	// Embedding metrics
	EmbeddingRequests prometheus.Counter
	EmbeddingFailures prometheus.Counter
	EmbeddingDuration prometheus.Histogram

	// Analysis metrics
	AnalysisRequests  prometheus.Counter
	AnalysisFailures  prometheus.Counter
	AnalysisFallbacks prometheus.Counter
	AnalysisDuration  prometheus.Histogram

	// Graph metrics
	DecisionNodesCreated prometheus.Counter
	OptionNodesCreated   prometheus.Counter

	// Session metrics
	ActiveSessions    prometheus.Gauge
	SessionsCreated   prometheus.Counter
	SessionsDestroyed prometheus.Counter
	SessionDuration   prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Ingest metrics
		UtterancesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_utterances_ingested_total",
			Help: "Total number of utterances ingested across all sessions",
		}),

		// Chunking metrics
		ChunksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_chunks_created_total",
			Help: "Total number of semantic chunks created",
		}),
		ChunkMemberCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dgraph_chunk_member_count",
			Help:    "Number of utterances per semantic chunk",
			Buckets: prometheus.LinearBuckets(2, 1, 9), // 2 to 10 members
		}),

		// Embedding metrics
		EmbeddingRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_embedding_requests_total",
			Help: "Total number of embedding requests sent",
		}),
		EmbeddingFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_embedding_failures_total",
			Help: "Total number of failed embedding requests",
		}),
		EmbeddingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dgraph_embedding_duration_seconds",
			Help:    "Duration of embedding requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		}),

		// Analysis metrics
		AnalysisRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_analysis_requests_total",
			Help: "Total number of structured analysis requests sent",
		}),
		AnalysisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_analysis_failures_total",
			Help: "Total number of failed analysis requests",
		}),
		AnalysisFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_analysis_fallbacks_total",
			Help: "Total number of chunks that received the deterministic fallback analysis",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dgraph_analysis_duration_seconds",
			Help:    "Duration of analysis requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		// Graph metrics
		DecisionNodesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_decision_nodes_created_total",
			Help: "Total number of decision nodes added to conversation graphs",
		}),
		OptionNodesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_option_nodes_created_total",
			Help: "Total number of option nodes added to conversation graphs",
		}),

		// Session metrics
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dgraph_active_sessions",
			Help: "Current number of active conversation sessions",
		}),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsDestroyed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dgraph_sessions_destroyed_total",
			Help: "Total number of sessions destroyed",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dgraph_session_duration_seconds",
			Help:    "Duration of conversation sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dgraph_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dgraph_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dgraph_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordUtteranceIngested increments the utterances ingested counter
func (m *Metrics) RecordUtteranceIngested() {
	m.UtterancesIngested.Inc()
}

// RecordChunkCreated records a created semantic chunk
func (m *Metrics) RecordChunkCreated(memberCount int) {
	m.ChunksCreated.Inc()
	m.ChunkMemberCount.Observe(float64(memberCount))
}

// RecordEmbeddingRequest records an embedding request outcome
func (m *Metrics) RecordEmbeddingRequest(durationSeconds float64, failed bool) {
	m.EmbeddingRequests.Inc()
	m.EmbeddingDuration.Observe(durationSeconds)
	if failed {
		m.EmbeddingFailures.Inc()
	}
}

// RecordAnalysisSuccess records a successful analysis request
func (m *Metrics) RecordAnalysisSuccess(durationSeconds float64) {
	m.AnalysisRequests.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
}

// RecordAnalysisFailure records a failed analysis request
func (m *Metrics) RecordAnalysisFailure(durationSeconds float64) {
	m.AnalysisRequests.Inc()
	m.AnalysisFailures.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
}

// RecordAnalysisFallback increments the fallback analysis counter
func (m *Metrics) RecordAnalysisFallback() {
	m.AnalysisFallbacks.Inc()
}

// RecordDecisionNode records a decision node with its option nodes
func (m *Metrics) RecordDecisionNode(optionCount int) {
	m.DecisionNodesCreated.Inc()
	m.OptionNodesCreated.Add(float64(optionCount))
}

// SetActiveSessions sets the current number of active sessions
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionCreated increments the sessions created counter
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
}

// RecordSessionDestroyed increments the sessions destroyed counter and records duration
func (m *Metrics) RecordSessionDestroyed(durationSeconds float64) {
	m.SessionsDestroyed.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aashmango/llama-fun/internal/analysis"
	"github.com/aashmango/llama-fun/internal/chunker"
	"github.com/aashmango/llama-fun/internal/graph"
	"github.com/aashmango/llama-fun/internal/metrics"
	"github.com/aashmango/llama-fun/internal/transcript"
)

// Session represents one live conversation: an utterance buffer, a semantic
// chunker over its recent window, and the decision graph grown from the
// chunker's output. All pipeline mutation is serialized by the session mutex.
type Session struct {
	ID        string
	StartTime time.Time

	buffer  *transcript.Buffer
	chunker *chunker.Chunker
	builder *graph.Builder
	graph   *graph.Graph

	analyzer analysis.Analyzer

	windowSize int
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// Pipeline state
	lastActivity time.Time
	chunks       []*chunker.SemanticChunk

	// Statistics
	chunksCreated     uint64
	analysisFallbacks uint64

	mu sync.Mutex
}

// Summary represents session information for monitoring and APIs
type Summary struct {
	ID                string        `json:"id"`
	StartTime         time.Time     `json:"start_time"`
	LastActivity      time.Time     `json:"last_activity"`
	Duration          time.Duration `json:"duration"`
	Utterances        int           `json:"utterances"`
	ChunksCreated     uint64        `json:"chunks_created"`
	DecisionNodes     int           `json:"decision_nodes"`
	OptionNodes       int           `json:"option_nodes"`
	LastDecisionID    string        `json:"last_decision_id,omitempty"`
	AnalysisFallbacks uint64        `json:"analysis_fallbacks"`
}

// ChunkExport is the snapshot form of a semantic chunk. Member utterances
// are referenced by id; embeddings are never exported.
type ChunkExport struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	MemberIDs []int64   `json:"member_ids"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a full JSON-serializable export of a session's conversation
// data: every utterance, every chunk, and the complete decision graph.
type Snapshot struct {
	SessionID  string                 `json:"session_id"`
	StartTime  time.Time              `json:"start_time"`
	ExportedAt time.Time              `json:"exported_at"`
	Utterances []transcript.Utterance `json:"utterances"`
	Chunks     []ChunkExport          `json:"chunks"`
	Graph      graph.Snapshot         `json:"graph"`
}

// Ingest appends one utterance and runs the chunking pipeline over the
// recent window. Chunking and analysis failures never reach the producer:
// an unavailable embedding provider leaves the window to be retried on the
// next utterance, and an unavailable analyzer degrades to the deterministic
// fallback analysis. Returns the appended utterance with its assigned id.
func (s *Session) Ingest(ctx context.Context, text string, timestamp time.Time) (transcript.Utterance, error) {
	if text == "" {
		return transcript.Utterance{}, fmt.Errorf("utterance text cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	utterance := s.buffer.Append(text, timestamp)
	s.lastActivity = time.Now()

	if s.metrics != nil {
		s.metrics.RecordUtteranceIngested()
	}

	window := s.buffer.RecentWindow(s.windowSize)

	chunks, err := s.chunker.Process(ctx, window)
	if err != nil {
		// The chunker mutated nothing; the same utterances are retried on
		// the next arrival.
		s.logger.Warn("Chunking deferred, embedding provider unavailable",
			slog.String("session_id", s.ID),
			slog.Int64("utterance_id", utterance.ID),
			slog.String("error", err.Error()),
		)
		return utterance, nil
	}

	for _, chunk := range chunks {
		s.processChunk(ctx, chunk)
	}

	return utterance, nil
}

// processChunk analyzes one closed chunk and grows the decision graph.
// Called with the session mutex held.
func (s *Session) processChunk(ctx context.Context, chunk *chunker.SemanticChunk) {
	s.logger.Info("Semantic chunk created",
		slog.String("session_id", s.ID),
		slog.String("chunk_id", chunk.ID),
		slog.Int("members", len(chunk.Members)),
		slog.String("text", chunk.Text),
	)

	startTime := time.Now()
	raw, err := s.analyzer.Analyze(ctx, chunk.Text)
	duration := time.Since(startTime)

	var structured analysis.StructuredAnalysis
	if err != nil {
		structured = analysis.Fallback(chunk.Text)
		s.analysisFallbacks++

		if s.metrics != nil {
			s.metrics.RecordAnalysisFailure(duration.Seconds())
			s.metrics.RecordAnalysisFallback()
		}

		s.logger.Warn("Analysis unavailable, using fallback",
			slog.String("session_id", s.ID),
			slog.String("chunk_id", chunk.ID),
			slog.String("error", err.Error()),
		)
	} else {
		structured = analysis.Parse(raw, chunk.Text)

		if s.metrics != nil {
			s.metrics.RecordAnalysisSuccess(duration.Seconds())
		}
	}

	if _, err := s.builder.AddChunk(chunk, structured); err != nil {
		s.logger.Error("Failed to add chunk to decision graph",
			slog.String("session_id", s.ID),
			slog.String("chunk_id", chunk.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	// Chunk bookkeeping only after the graph accepted it, so summary and
	// snapshot counts never disagree with the graph.
	s.chunks = append(s.chunks, chunk)
	s.chunksCreated++

	if s.metrics != nil {
		s.metrics.RecordChunkCreated(len(chunk.Members))
		s.metrics.RecordDecisionNode(len(structured.Options))
	}
}

// Summary returns current session counts and timing
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		ID:                s.ID,
		StartTime:         s.StartTime,
		LastActivity:      s.lastActivity,
		Duration:          time.Since(s.StartTime),
		Utterances:        s.buffer.Len(),
		ChunksCreated:     s.chunksCreated,
		DecisionNodes:     s.graph.DecisionCount(),
		OptionNodes:       s.graph.OptionCount(),
		LastDecisionID:    s.graph.LastDecisionID(),
		AnalysisFallbacks: s.analysisFallbacks,
	}
}

// Snapshot exports the complete conversation data for the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := make([]ChunkExport, len(s.chunks))
	for i, c := range s.chunks {
		chunks[i] = ChunkExport{
			ID:        c.ID,
			Text:      c.Text,
			MemberIDs: c.MemberIDs(),
			Timestamp: c.Timestamp,
		}
	}

	return Snapshot{
		SessionID:  s.ID,
		StartTime:  s.StartTime,
		ExportedAt: time.Now(),
		Utterances: s.buffer.All(),
		Chunks:     chunks,
		Graph:      s.graph.Snapshot(),
	}
}

// Graph returns the session's decision graph
func (s *Session) Graph() *graph.Graph {
	return s.graph
}

// LastActivity returns the time of the most recent ingest
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

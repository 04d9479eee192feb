package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aashmango/llama-fun/internal/analysis"
	"github.com/aashmango/llama-fun/internal/chunker"
	"github.com/aashmango/llama-fun/internal/embedding"
	"github.com/aashmango/llama-fun/internal/graph"
	"github.com/aashmango/llama-fun/internal/metrics"
	"github.com/aashmango/llama-fun/internal/transcript"
)

// ErrSessionNotFound indicates a lookup for a session id the manager does
// not hold
var ErrSessionNotFound = errors.New("session not found")

// ErrTooManySessions indicates the configured session limit was reached
var ErrTooManySessions = errors.New("maximum concurrent sessions reached")

// ManagerConfig contains configuration for the session manager
type ManagerConfig struct {
	ChunkingConfig chunker.Config
	IdleTimeout    time.Duration
	MaxSessions    int
}

// Manager owns all active conversation sessions. The embedding provider and
// analyzer are injected so tests can run the full pipeline against
// deterministic fakes.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	config   ManagerConfig
	provider embedding.Provider
	analyzer analysis.Analyzer

	logger  *slog.Logger
	metrics *metrics.Metrics

	// Cleanup management
	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
}

// NewManager creates a new session manager and starts its idle-session
// cleanup routine
func NewManager(config ManagerConfig, provider embedding.Provider, analyzer analysis.Analyzer, logger *slog.Logger, m *metrics.Metrics) (*Manager, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider cannot be nil")
	}

	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}

	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 5 * time.Minute
	}

	if config.MaxSessions <= 0 {
		config.MaxSessions = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		sessions: make(map[string]*Session),
		config:   config,
		provider: provider,
		analyzer: analyzer,
		logger:   logger,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
		cleanup:  make(chan struct{}),
	}

	go mgr.startCleanupRoutine()

	return mgr, nil
}

// CreateSession creates a new conversation session with its own buffer,
// chunker, and decision graph
func (m *Manager) CreateSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.config.MaxSessions {
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, m.config.MaxSessions)
	}

	chk, err := chunker.NewChunker(m.config.ChunkingConfig, m.provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	g := graph.NewGraph()
	now := time.Now()

	session := &Session{
		ID:           uuid.NewString(),
		StartTime:    now,
		lastActivity: now,
		buffer:       transcript.NewBuffer(),
		chunker:      chk,
		builder:      graph.NewBuilder(g, m.logger),
		graph:        g,
		analyzer:     m.analyzer,
		windowSize:   m.config.ChunkingConfig.WindowSize,
		logger:       m.logger,
		metrics:      m.metrics,
	}

	m.sessions[session.ID] = session

	if m.metrics != nil {
		m.metrics.RecordSessionCreated()
		m.metrics.SetActiveSessions(len(m.sessions))
	}

	m.logger.Info("Created new conversation session",
		slog.String("session_id", session.ID),
		slog.Int("active_sessions", len(m.sessions)),
	)

	return session, nil
}

// GetSession retrieves an existing session by id
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// RemoveSession removes a session and records its lifetime
func (m *Manager) RemoveSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	delete(m.sessions, id)

	duration := time.Since(session.StartTime)
	summary := session.Summary()

	if m.metrics != nil {
		m.metrics.RecordSessionDestroyed(duration.Seconds())
		m.metrics.SetActiveSessions(len(m.sessions))
	}

	m.logger.Info("Removed conversation session",
		slog.String("session_id", id),
		slog.Duration("duration", duration),
		slog.Int("utterances", summary.Utterances),
		slog.Uint64("chunks_created", summary.ChunksCreated),
		slog.Int("decision_nodes", summary.DecisionNodes),
	)

	return nil
}

// ListSessions returns summaries of all active sessions
func (m *Manager) ListSessions() []Summary {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	summaries := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, s.Summary())
	}
	return summaries
}

// GetActiveSessionCount returns the number of currently active sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop gracefully stops the session manager and its cleanup routine
func (m *Manager) Stop() {
	m.logger.Info("Stopping session manager...")

	m.cancel()
	<-m.cleanup

	m.logger.Info("Session manager stopped",
		slog.Int("remaining_sessions", m.GetActiveSessionCount()),
	)
}

// startCleanupRoutine runs in a separate goroutine to remove idle sessions
func (m *Manager) startCleanupRoutine() {
	defer close(m.cleanup)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	m.logger.Info("Session cleanup routine started",
		slog.Duration("idle_timeout", m.config.IdleTimeout),
		slog.Duration("check_interval", 30*time.Second),
	)

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("Session cleanup routine stopping")
			return

		case <-ticker.C:
			m.cleanupIdleSessions()
		}
	}
}

// cleanupIdleSessions removes sessions with no ingest activity within the
// idle timeout
func (m *Manager) cleanupIdleSessions() {
	now := time.Now()

	m.mu.RLock()
	idle := make([]string, 0)
	for id, session := range m.sessions {
		if now.Sub(session.LastActivity()) > m.config.IdleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	if len(idle) == 0 {
		return
	}

	m.logger.Info("Cleaning up idle sessions",
		slog.Int("idle_count", len(idle)),
	)

	for _, id := range idle {
		if err := m.RemoveSession(id); err != nil {
			m.logger.Warn("Failed to remove idle session",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
}

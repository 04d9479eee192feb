package graph

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aashmango/llama-fun/internal/analysis"
	"github.com/aashmango/llama-fun/internal/chunker"
)

// Builder turns semantic chunks and their structured analyses into graph
// nodes and edges. All mutation goes through the graph's own lock; the
// builder itself holds no state beyond its dependencies.
type Builder struct {
	graph  *Graph
	logger *slog.Logger
}

// NewBuilder creates a builder over the given graph
func NewBuilder(g *Graph, logger *slog.Logger) *Builder {
	return &Builder{
		graph:  g,
		logger: logger,
	}
}

// AddChunk creates one decision node keyed by the chunk id, an option node
// plus option edge per analysis option (order preserved), and a follows
// edge from the previously added decision node. A duplicate chunk id is
// rejected without touching the graph. Returns the decision node id.
func (b *Builder) AddChunk(chunk *chunker.SemanticChunk, a analysis.StructuredAnalysis) (string, error) {
	if chunk == nil {
		return "", fmt.Errorf("chunk cannot be nil")
	}

	node := &DecisionNode{
		ID:            chunk.ID,
		Topic:         a.Topic,
		DecisionPoint: a.DecisionPoint,
		Context:       a.Context,
		OriginalText:  chunk.Text,
		NextSteps:     a.NextSteps,
		CreatedAt:     time.Now(),
	}

	if err := b.graph.AddDecisionWithOptions(node, a.Options); err != nil {
		return "", fmt.Errorf("failed to add decision node for chunk %s: %w", chunk.ID, err)
	}

	b.logger.Info("Added decision node",
		slog.String("chunk_id", chunk.ID),
		slog.String("topic", a.Topic),
		slog.String("decision_point", a.DecisionPoint),
		slog.Int("options", len(a.Options)),
	)

	return chunk.ID, nil
}

// Graph returns the underlying conversation graph
func (b *Builder) Graph() *Graph {
	return b.graph
}

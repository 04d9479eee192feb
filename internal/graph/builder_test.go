package graph

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aashmango/llama-fun/internal/analysis"
	"github.com/aashmango/llama-fun/internal/chunker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testChunk(id, text string) *chunker.SemanticChunk {
	return &chunker.SemanticChunk{
		ID:        id,
		Text:      text,
		Timestamp: time.Now(),
	}
}

func TestBuilderAddChunk(t *testing.T) {
	builder := NewBuilder(NewGraph(), testLogger())

	a := analysis.StructuredAnalysis{
		Topic:         "Drinks",
		DecisionPoint: "What to drink",
		Options:       []string{"Coffee", "Tea"},
		Context:       "Choosing a beverage",
		NextSteps:     []string{"Order drinks"},
	}

	nodeID, err := builder.AddChunk(testChunk("chunk_0", "I want coffee Tea is also fine"), a)
	if err != nil {
		t.Fatalf("AddChunk failed: %v", err)
	}
	if nodeID != "chunk_0" {
		t.Errorf("Expected node id 'chunk_0', got '%s'", nodeID)
	}

	g := builder.Graph()
	node, ok := g.DecisionNode("chunk_0")
	if !ok {
		t.Fatal("Decision node not found")
	}
	if node.Topic != "Drinks" {
		t.Errorf("Expected topic 'Drinks', got '%s'", node.Topic)
	}
	if node.DecisionPoint != "What to drink" {
		t.Errorf("Expected decision point 'What to drink', got '%s'", node.DecisionPoint)
	}
	if node.OriginalText != "I want coffee Tea is also fine" {
		t.Errorf("Original text not preserved: '%s'", node.OriginalText)
	}
	if len(node.NextSteps) != 1 || node.NextSteps[0] != "Order drinks" {
		t.Errorf("Next steps wrong: %v", node.NextSteps)
	}

	options := g.OptionsOf("chunk_0")
	if len(options) != 2 {
		t.Fatalf("Expected 2 options, got %d", len(options))
	}
	if options[0].Text != "Coffee" || options[1].Text != "Tea" {
		t.Errorf("Option order not preserved: %s, %s", options[0].Text, options[1].Text)
	}
}

func TestBuilderAddChunkNil(t *testing.T) {
	builder := NewBuilder(NewGraph(), testLogger())

	if _, err := builder.AddChunk(nil, analysis.StructuredAnalysis{}); err == nil {
		t.Error("Expected error for nil chunk")
	}
}

func TestBuilderDuplicateChunkRejected(t *testing.T) {
	builder := NewBuilder(NewGraph(), testLogger())

	a := analysis.StructuredAnalysis{Topic: "First", Options: []string{"A"}}
	if _, err := builder.AddChunk(testChunk("chunk_0", "text"), a); err != nil {
		t.Fatalf("First AddChunk failed: %v", err)
	}

	_, err := builder.AddChunk(testChunk("chunk_0", "other text"), a)
	if err == nil {
		t.Fatal("Expected error for duplicate chunk id")
	}
	if !errors.Is(err, ErrDuplicateDecision) {
		t.Errorf("Expected ErrDuplicateDecision, got %v", err)
	}

	g := builder.Graph()
	if g.DecisionCount() != 1 || g.OptionCount() != 1 {
		t.Errorf("Graph changed by rejected duplicate: %d decisions, %d options",
			g.DecisionCount(), g.OptionCount())
	}
}

func TestBuilderFallbackAnalysis(t *testing.T) {
	builder := NewBuilder(NewGraph(), testLogger())

	chunkText := "Some conversation the analyzer could not handle"
	a := analysis.Parse("not json", chunkText)

	if _, err := builder.AddChunk(testChunk("chunk_0", chunkText), a); err != nil {
		t.Fatalf("AddChunk failed: %v", err)
	}

	node, _ := builder.Graph().DecisionNode("chunk_0")
	if node.Topic != analysis.FallbackTopic {
		t.Errorf("Expected fallback topic, got '%s'", node.Topic)
	}
	if node.DecisionPoint != analysis.FallbackDecisionPoint {
		t.Errorf("Expected fallback decision point, got '%s'", node.DecisionPoint)
	}
	if node.Context != chunkText {
		t.Errorf("Expected chunk text as context, got '%s'", node.Context)
	}

	options := builder.Graph().OptionsOf("chunk_0")
	if len(options) != 2 || options[0].Text != "Continue" || options[1].Text != "Explore Further" {
		t.Errorf("Fallback options wrong: %+v", options)
	}
}

func TestBuilderSuccessiveChunks(t *testing.T) {
	builder := NewBuilder(NewGraph(), testLogger())

	chunks := []struct {
		id    string
		topic string
	}{
		{"chunk_0", "Drinks"},
		{"chunk_1", "Errands"},
		{"chunk_2", "Weekend plans"},
	}

	for _, c := range chunks {
		a := analysis.StructuredAnalysis{Topic: c.topic, Options: []string{"opt"}}
		if _, err := builder.AddChunk(testChunk(c.id, "text"), a); err != nil {
			t.Fatalf("AddChunk(%s) failed: %v", c.id, err)
		}
	}

	g := builder.Graph()

	followsEdges := 0
	for _, edge := range g.Edges() {
		if edge.Kind == EdgeFollows {
			followsEdges++
		}
	}
	if followsEdges != 2 {
		t.Errorf("Expected 2 follows edges for 3 decisions, got %d", followsEdges)
	}

	decisions := g.Decisions()
	if len(decisions) != 3 {
		t.Fatalf("Expected 3 decisions, got %d", len(decisions))
	}
	for i, c := range chunks {
		if decisions[i].ID != c.id {
			t.Errorf("Decision %d: expected id '%s', got '%s'", i, c.id, decisions[i].ID)
		}
	}
}

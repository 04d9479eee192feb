package graph

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateDecision indicates an attempt to add a second decision node
// with an id the graph already holds. The graph is left untouched.
var ErrDuplicateDecision = errors.New("decision node already exists")

// EdgeKind discriminates the two edge types of the conversation graph
type EdgeKind string

const (
	// EdgeOption links a decision node to one of its option nodes
	EdgeOption EdgeKind = "option"
	// EdgeFollows marks temporal/topical succession between decision nodes
	EdgeFollows EdgeKind = "follows"
)

// DecisionNode summarizes one semantic chunk's topic and decision point.
// Exactly one decision node exists per chunk; nodes are immutable after
// insertion.
type DecisionNode struct {
	ID            string    `json:"id"` // chunk id
	Topic         string    `json:"topic"`
	DecisionPoint string    `json:"decision_point"`
	Context       string    `json:"context"`
	OriginalText  string    `json:"original_text"`
	NextSteps     []string  `json:"next_steps,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// OptionNode represents one choice surfaced within a decision node's
// analysis. Each option node has exactly one parent decision node.
type OptionNode struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Text     string `json:"text"`
}

// Edge is a typed, labeled edge between two graph nodes
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Label string   `json:"label,omitempty"`
}

// Graph is the append-only directed multigraph of decision and option
// nodes. Nodes and edges are never removed or relabeled after insertion.
// Succession is tracked by an explicit last-decision pointer rather than
// node enumeration order.
type Graph struct {
	decisions     map[string]*DecisionNode
	options       map[string]*OptionNode
	edges         []Edge
	decisionOrder []string // insertion order of decision node ids

	// Explicit succession pointer, updated only when a decision node is
	// inserted.
	lastDecisionID string

	mu sync.RWMutex
}

// NewGraph creates a new empty conversation graph
func NewGraph() *Graph {
	return &Graph{
		decisions: make(map[string]*DecisionNode),
		options:   make(map[string]*OptionNode),
	}
}

// addDecision inserts a decision node, links it to its predecessor, and
// advances the succession pointer. Called by the Builder under the graph
// lock via AddDecisionWithOptions.
func (g *Graph) addDecision(node *DecisionNode) error {
	if _, exists := g.decisions[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDecision, node.ID)
	}

	g.decisions[node.ID] = node
	g.decisionOrder = append(g.decisionOrder, node.ID)

	if g.lastDecisionID != "" {
		g.edges = append(g.edges, Edge{
			From: g.lastDecisionID,
			To:   node.ID,
			Kind: EdgeFollows,
		})
	}
	g.lastDecisionID = node.ID

	return nil
}

// AddDecisionWithOptions atomically inserts a decision node together with
// its option nodes and edges. On a duplicate decision id nothing is
// inserted. Option order is preserved in both node ids and edge order.
func (g *Graph) AddDecisionWithOptions(node *DecisionNode, optionTexts []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.addDecision(node); err != nil {
		return err
	}

	for i, text := range optionTexts {
		option := &OptionNode{
			ID:       fmt.Sprintf("%s_option_%d", node.ID, i),
			ParentID: node.ID,
			Text:     text,
		}
		g.options[option.ID] = option
		g.edges = append(g.edges, Edge{
			From:  node.ID,
			To:    option.ID,
			Kind:  EdgeOption,
			Label: text,
		})
	}

	return nil
}

// DecisionNode returns the decision node with the given id, if present
func (g *Graph) DecisionNode(id string) (*DecisionNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.decisions[id]
	return node, ok
}

// Decisions returns all decision nodes in insertion order
func (g *Graph) Decisions() []*DecisionNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]*DecisionNode, 0, len(g.decisionOrder))
	for _, id := range g.decisionOrder {
		nodes = append(nodes, g.decisions[id])
	}
	return nodes
}

// OptionsOf returns the option nodes of a decision node in option order
func (g *Graph) OptionsOf(decisionID string) []*OptionNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var options []*OptionNode
	for i := 0; ; i++ {
		option, ok := g.options[fmt.Sprintf("%s_option_%d", decisionID, i)]
		if !ok {
			break
		}
		options = append(options, option)
	}
	return options
}

// Edges returns a copy of all edges in insertion order
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// LastDecisionID returns the id of the most recently inserted decision
// node, or "" for an empty graph
func (g *Graph) LastDecisionID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastDecisionID
}

// DecisionCount returns the number of decision nodes
func (g *Graph) DecisionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.decisions)
}

// OptionCount returns the number of option nodes
func (g *Graph) OptionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.options)
}

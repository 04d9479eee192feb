package graph

import (
	"fmt"
	"time"
)

// NodeSnapshot is the export form of a graph node. Kind discriminates
// decision nodes from option nodes; fields not applicable to the kind are
// omitted.
type NodeSnapshot struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "decision" or "option"

	// Decision node attributes
	Topic         string     `json:"topic,omitempty"`
	DecisionPoint string     `json:"decision_point,omitempty"`
	Context       string     `json:"context,omitempty"`
	OriginalText  string     `json:"original_text,omitempty"`
	NextSteps     []string   `json:"next_steps,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`

	// Option node attributes
	ParentID string `json:"parent_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Snapshot is a read-only, JSON-serializable view of the graph
type Snapshot struct {
	Nodes []NodeSnapshot `json:"nodes"`
	Edges []Edge         `json:"edges"`
}

// Snapshot returns a consistent read-only copy of the graph. Decision nodes
// appear in insertion order, each immediately followed by its option nodes
// in option order.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]NodeSnapshot, 0, len(g.decisions)+len(g.options))
	for _, id := range g.decisionOrder {
		d := g.decisions[id]
		createdAt := d.CreatedAt
		nodes = append(nodes, NodeSnapshot{
			ID:            d.ID,
			Kind:          "decision",
			Topic:         d.Topic,
			DecisionPoint: d.DecisionPoint,
			Context:       d.Context,
			OriginalText:  d.OriginalText,
			NextSteps:     d.NextSteps,
			CreatedAt:     &createdAt,
		})

		for i := 0; ; i++ {
			option, ok := g.options[fmt.Sprintf("%s_option_%d", id, i)]
			if !ok {
				break
			}
			nodes = append(nodes, NodeSnapshot{
				ID:       option.ID,
				Kind:     "option",
				ParentID: option.ParentID,
				Text:     option.Text,
			})
		}
	}

	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)

	return Snapshot{
		Nodes: nodes,
		Edges: edges,
	}
}

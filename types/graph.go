package types

import (
	"sort"
)

// NodeKind selects which registry a node's implementation is resolved from.
type NodeKind string

const (
	KindComputation NodeKind = "computation"
	KindTool        NodeKind = "tool"
)

// EndTarget is the reserved edge target that terminates a run.
const EndTarget = "__end__"

// Node is a named step descriptor. It carries no executable code: the
// implementation is resolved through the registry by name and kind when the
// node runs.
type Node struct {
	Name string   `json:"name"`
	Kind NodeKind `json:"kind,omitempty"`
	// Tool overrides the registry name for tool nodes; defaults to Name.
	Tool        string `json:"tool,omitempty"`
	Description string `json:"description,omitempty"`
}

// Impl returns the registry name the node's implementation is bound to.
func (n Node) Impl() string {
	if n.Kind == KindTool && n.Tool != "" {
		return n.Tool
	}
	return n.Name
}

// Edge is a directed transition. A nil Condition means the edge is
// unconditional and always matches. Order breaks ties between edges leaving
// the same source; equal orders keep declaration order.
type Edge struct {
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Condition *Condition `json:"condition,omitempty"`
	Order     int        `json:"order,omitempty"`
}

// Graph is an immutable description of nodes, edges and a start node.
// Construct it with NewGraph; do not mutate the exported fields afterwards.
// Cycles are legal and are exactly how loops are expressed.
type Graph struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Start string          `json:"start"`
	Nodes map[string]Node `json:"nodes"`
	Edges []Edge          `json:"edges"`

	outgoing map[string][]Edge
}

// NewGraph validates the declarations and builds a Graph. It fails with a
// GraphValidationError when the start node is unset or absent, a node name is
// duplicated or empty, an edge references a missing node, or a condition
// carries an unknown operator. Unreachable nodes and non-terminating loops are
// not detected here; loops are bounded at runtime by the step ceiling.
func NewGraph(name string, nodes []Node, edges []Edge, start string) (*Graph, error) {
	g := &Graph{
		Name:  name,
		Start: start,
		Nodes: make(map[string]Node, len(nodes)),
		Edges: append([]Edge(nil), edges...),
	}

	for _, n := range nodes {
		if n.Name == "" {
			return nil, NewGraphValidationErrorf("node with empty name")
		}
		if n.Kind == "" {
			n.Kind = KindComputation
		}
		if n.Kind != KindComputation && n.Kind != KindTool {
			return nil, NewGraphValidationErrorf("node %q has unknown kind %q", n.Name, n.Kind)
		}
		if _, exists := g.Nodes[n.Name]; exists {
			return nil, NewGraphValidationErrorf("duplicate node name %q", n.Name)
		}
		g.Nodes[n.Name] = n
	}

	if start == "" {
		return nil, NewGraphValidationErrorf("start node is unset")
	}
	if _, exists := g.Nodes[start]; !exists {
		return nil, NewGraphValidationErrorf("start node %q is not in the node set", start)
	}

	for _, e := range g.Edges {
		if _, exists := g.Nodes[e.Source]; !exists {
			return nil, NewGraphValidationErrorf("edge source %q is not in the node set", e.Source)
		}
		if _, exists := g.Nodes[e.Target]; !exists && e.Target != EndTarget {
			return nil, NewGraphValidationErrorf("edge target %q is not in the node set", e.Target)
		}
		if e.Condition != nil {
			if err := e.Condition.validate(); err != nil {
				return nil, err
			}
		}
	}

	g.outgoing = make(map[string][]Edge)
	for _, e := range g.Edges {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	}
	for _, siblings := range g.outgoing {
		sort.SliceStable(siblings, func(i, j int) bool {
			return siblings[i].Order < siblings[j].Order
		})
	}

	return g, nil
}

// Node returns the descriptor for the given name.
func (g *Graph) Node(name string) (Node, bool) {
	n, exists := g.Nodes[name]
	return n, exists
}

// Outgoing returns the edges leaving the node in their fixed evaluation
// order. The returned slice must not be modified.
func (g *Graph) Outgoing(node string) []Edge {
	return g.outgoing[node]
}

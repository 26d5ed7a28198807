package flow

import (
	"errors"
	"slices"

	"github.com/flowgridhq/flowgrid/pkg/geom"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Node IDs must be unique across the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidEdgeID is returned by [Graph.AddEdge] when the edge ID is empty.
	ErrInvalidEdgeID = errors.New("edge ID must not be empty")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the Source
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the Target
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrEmptyGraph is returned by [Graph.Validate] for a graph with no
	// nodes. An empty node list is a caller-level precondition violation:
	// there is nothing to lay out.
	ErrEmptyGraph = errors.New("graph has no nodes")
)

// Node is a diagram vertex. Position and Size are mutated in place by the
// layout phases; ID and Kind are immutable for the lifetime of a run.
type Node struct {
	ID       string     `json:"id" bson:"id"`
	Kind     Kind       `json:"kind,omitempty" bson:"kind,omitempty"`
	Label    string     `json:"label,omitempty" bson:"label,omitempty"`
	Position geom.Point `json:"position" bson:"position"`
	Width    float64    `json:"width,omitempty" bson:"width,omitempty"`
	Height   float64    `json:"height,omitempty" bson:"height,omitempty"`

	// Pinned nodes keep their input position: the collision solver and the
	// refiner never move them.
	Pinned bool `json:"pinned,omitempty" bson:"pinned,omitempty"`

	// FrameID references the enclosing frame node, if any. On input it is a
	// hint; the frame registry recomputes authoritative membership.
	FrameID string `json:"frameId,omitempty" bson:"frame_id,omitempty"`

	// Contents carries a frame's frozen member IDs persisted from a prior
	// run. When present it is trusted (filtered to existing IDs) so repeat
	// runs reproduce the same grouping. Meaningful only for frame nodes.
	Contents []string `json:"contents,omitempty" bson:"contents,omitempty"`
}

// Bounds returns the node's axis-aligned bounding box at its current
// position. Position is the top-left corner.
func (n *Node) Bounds() geom.Rect {
	return geom.RectAt(n.Position, n.Width, n.Height)
}

// Center returns the center point of the node's bounding box.
func (n *Node) Center() geom.Point { return n.Bounds().Center() }

// IsFrame reports whether the node is a container frame.
func (n *Node) IsFrame() bool { return n.Kind == KindFrame }

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two nodes. SourceHandle and
// TargetHandle are outputs of the layout engine; empty means unassigned.
type Edge struct {
	ID           string      `json:"id" bson:"id"`
	Source       string      `json:"source" bson:"source"`
	Target       string      `json:"target" bson:"target"`
	SourceHandle geom.Anchor `json:"sourceHandle,omitempty" bson:"source_handle,omitempty"`
	TargetHandle geom.Anchor `json:"targetHandle,omitempty" bson:"target_handle,omitempty"`
	Label        string      `json:"label,omitempty" bson:"label,omitempty"`
}

// Graph is the in-memory diagram graph the layout engine operates on.
// Nodes are indexed by ID and kept in insertion order so every traversal is
// deterministic. Graph is not safe for concurrent use.
type Graph struct {
	nodes    map[string]*Node
	order    []string // node IDs in insertion order
	edges    []Edge
	outgoing map[string][]int // node ID -> indices into edges
	incoming map[string][]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
	}
}

// AddNode adds a node to the graph. The node's Kind is normalized and zero
// sizes are replaced with the kind's defaults, so downstream phases can rely
// on every node having a non-degenerate bounding box.
//
// Returns ErrInvalidNodeID for an empty ID or ErrDuplicateNodeID if the ID
// is already in use.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	n.Kind = n.Kind.Normalize()
	if n.Width <= 0 || n.Height <= 0 {
		w, h := n.Kind.DefaultSize()
		if n.Width <= 0 {
			n.Width = w
		}
		if n.Height <= 0 {
			n.Height = h
		}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Returns
// ErrUnknownSourceNode or ErrUnknownTargetNode for dangling references;
// lenient ingestion paths (see [FromDocument]) translate those into skipped
// edges instead of failures.
func (g *Graph) AddEdge(e Edge) error {
	if e.ID == "" {
		return ErrInvalidEdgeID
	}
	if _, ok := g.nodes[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.outgoing[e.Source] = append(g.outgoing[e.Source], idx)
	g.incoming[e.Target] = append(g.incoming[e.Target], idx)
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
// The pointer refers to the live node, so position updates are visible to
// every later phase.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns the live edge slice. Handle assignment mutates edges in
// place through this slice; callers that need a stable copy should clone it.
func (g *Graph) Edges() []Edge { return g.edges }

// Edge returns a pointer to the edge at index i.
func (g *Graph) Edge(i int) *Edge { return &g.edges[i] }

// Outgoing returns the indices of edges leaving the node.
func (g *Graph) Outgoing(id string) []int { return g.outgoing[id] }

// Incoming returns the indices of edges entering the node.
func (g *Graph) Incoming(id string) []int { return g.incoming[id] }

// OutDegree returns the number of edges leaving the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of edges entering the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Successors returns the distinct target IDs of the node's outgoing edges,
// in edge insertion order.
func (g *Graph) Successors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, i := range g.outgoing[id] {
		t := g.edges[i].Target
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Predecessors returns the distinct source IDs of the node's incoming edges,
// in edge insertion order.
func (g *Graph) Predecessors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, i := range g.incoming[id] {
		s := g.edges[i].Source
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Frames returns all frame-kind nodes in insertion order.
func (g *Graph) Frames() []*Node {
	var out []*Node
	for _, id := range g.order {
		if g.nodes[id].IsFrame() {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// Roots returns nodes with no incoming edges, in insertion order.
func (g *Graph) Roots() []*Node {
	var out []*Node
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (g *Graph) Sinks() []*Node {
	var out []*Node
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// Validate checks the caller-level preconditions for a layout run: the
// graph must contain at least one node, and every edge endpoint must exist.
// Duplicate IDs cannot occur here because AddNode rejects them.
func (g *Graph) Validate() error {
	if len(g.nodes) == 0 {
		return ErrEmptyGraph
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.Source]; !ok {
			return ErrUnknownSourceNode
		}
		if _, ok := g.nodes[e.Target]; !ok {
			return ErrUnknownTargetNode
		}
	}
	return nil
}

// Clone returns a deep copy of the graph. The layout engine clones its
// input so callers keep an untouched original when a run degrades.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.order {
		n := *g.nodes[id]
		n.Contents = slices.Clone(n.Contents)
		c.nodes[n.ID] = &n
		c.order = append(c.order, n.ID)
	}
	c.edges = slices.Clone(g.edges)
	for i, e := range c.edges {
		c.outgoing[e.Source] = append(c.outgoing[e.Source], i)
		c.incoming[e.Target] = append(c.incoming[e.Target], i)
	}
	return c
}

// Package flow provides the diagram graph model consumed and produced by the
// layout engine: typed nodes (including container frames), directed edges
// with optional handle assignments, and the JSON serialization format used
// by the CLI and HTTP API.
//
// # Overview
//
// A flowgrid diagram is a directed graph of typed nodes. Node kinds carry
// default sizes (a decision diamond is 120×120, start/end pills are 60×60)
// resolved once at ingestion, so the engine never dispatches on kind strings
// for geometry. Frame-kind nodes act as containers that visually enclose a
// frozen set of member nodes.
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [Graph.AddNode], and edges with
// [Graph.AddEdge]:
//
//	g := flow.New()
//	g.AddNode(flow.Node{ID: "a", Kind: flow.KindStart})
//	g.AddNode(flow.Node{ID: "b", Kind: flow.KindScreen})
//	g.AddEdge(flow.Edge{ID: "e1", Source: "a", Target: "b"})
//
// Query structure with [Graph.Outgoing], [Graph.Incoming], [Graph.Node] and
// related methods. [Graph.Validate] checks the caller-level preconditions
// (non-empty node set, unique IDs, edge endpoints that exist).
//
// # Serialization
//
// The wire format is a plain {nodes, edges} document. [FromDocument] applies
// the engine's lenient ingestion rules: edges referencing missing nodes are
// skipped and reported as diagnostics rather than failing the load, and
// zero sizes are replaced by kind defaults. Use [ReadGraphFile] and
// [WriteGraphFile] for file round-trips.
//
// # Diagnostics
//
// Soft violations (dangling edge references, exhausted handle anchors,
// residual collisions) never abort a run. They accumulate in a
// [Diagnostics] list that callers can inspect after the fact.
package flow

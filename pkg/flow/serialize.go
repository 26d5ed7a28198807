package flow

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document is the canonical serialization format for diagram graphs. It is
// the shape accepted by the HTTP API and the CLI, and the shape written back
// after layout (same IDs, updated positions and handle assignments).
type Document struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// ToDocument converts a graph to its serialization format. Nodes and edges
// keep their insertion order, which the engine guarantees is deterministic.
func ToDocument(g *Graph) Document {
	doc := Document{
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, *n)
	}
	doc.Edges = append(doc.Edges, g.Edges()...)
	return doc
}

// FromDocument builds a graph from a document using the engine's lenient
// ingestion rules:
//
//   - duplicate or empty node IDs fail the load (precondition violation)
//   - unknown node kinds are coerced to process, with a diagnostic
//   - edges referencing missing nodes are skipped, with a diagnostic
//   - handle values outside top/right/bottom/left are cleared, with a diagnostic
//
// The returned diagnostics list is never nil-checked by callers; an empty
// slice means a clean load.
func FromDocument(doc Document) (*Graph, Diagnostics, error) {
	g := New()
	var diags Diagnostics

	for _, n := range doc.Nodes {
		if n.Kind != "" && !n.Kind.Valid() {
			diags.Add(DiagUnknownKind, n.ID, "kind %q coerced to %q", n.Kind, KindProcess)
		}
		if err := g.AddNode(n); err != nil {
			return nil, diags, fmt.Errorf("add node %q: %w", n.ID, err)
		}
	}

	for i, e := range doc.Edges {
		if e.ID == "" {
			e.ID = fmt.Sprintf("edge-%d", i)
		}
		if e.SourceHandle != "" && !e.SourceHandle.Valid() {
			diags.Add(DiagInvalidHandle, e.ID, "source handle %q cleared", e.SourceHandle)
			e.SourceHandle = ""
		}
		if e.TargetHandle != "" && !e.TargetHandle.Valid() {
			diags.Add(DiagInvalidHandle, e.ID, "target handle %q cleared", e.TargetHandle)
			e.TargetHandle = ""
		}
		switch err := g.AddEdge(e); err {
		case nil:
		case ErrUnknownSourceNode:
			diags.Add(DiagDanglingEdge, e.ID, "source %q not in node set, edge skipped", e.Source)
		case ErrUnknownTargetNode:
			diags.Add(DiagDanglingEdge, e.ID, "target %q not in node set, edge skipped", e.Target)
		default:
			return nil, diags, fmt.Errorf("add edge %q: %w", e.ID, err)
		}
	}

	return g, diags, nil
}

// MarshalGraph converts a graph to pretty-printed JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	return json.MarshalIndent(ToDocument(g), "", "  ")
}

// WriteGraph writes a graph as JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteGraphFile writes a graph to a JSON file with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraph decodes a JSON document from r into a graph, applying the
// lenient ingestion rules of [FromDocument].
func ReadGraph(r io.Reader) (*Graph, Diagnostics, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	return FromDocument(doc)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
func ReadGraphFile(path string) (*Graph, Diagnostics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

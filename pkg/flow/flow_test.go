package flow

import (
	"bytes"
	"errors"
	"testing"

	"github.com/flowgridhq/flowgrid/pkg/geom"
)

func TestAddNodeDefaults(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "d", Kind: KindDecision}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	n, ok := g.Node("d")
	if !ok {
		t.Fatal("Node(\"d\") not found")
	}
	if n.Width != 120 || n.Height != 120 {
		t.Errorf("decision default size = %vx%v, want 120x120", n.Width, n.Height)
	}
}

func TestAddNodeErrors(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: ""}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty ID) error = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(duplicate) error = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddNodeNormalizesKind(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "x", Kind: "spaceship"}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	n, _ := g.Node("x")
	if n.Kind != KindProcess {
		t.Errorf("Kind = %q, want %q", n.Kind, KindProcess)
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})

	if err := g.AddEdge(Edge{ID: "e", Source: "missing", Target: "b"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge() error = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{ID: "e", Source: "a", Target: "missing"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge() error = %v, want ErrUnknownTargetNode", err)
	}
	if err := g.AddEdge(Edge{ID: "e", Source: "a", Target: "b"}); err != nil {
		t.Errorf("AddEdge() error = %v", err)
	}
}

func TestAdjacency(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(Node{ID: id})
	}
	g.AddEdge(Edge{ID: "e1", Source: "a", Target: "b"})
	g.AddEdge(Edge{ID: "e2", Source: "a", Target: "c"})
	g.AddEdge(Edge{ID: "e3", Source: "b", Target: "c"})

	if got := g.OutDegree("a"); got != 2 {
		t.Errorf("OutDegree(a) = %d, want 2", got)
	}
	if got := g.InDegree("c"); got != 2 {
		t.Errorf("InDegree(c) = %d, want 2", got)
	}
	succ := g.Successors("a")
	if len(succ) != 2 || succ[0] != "b" || succ[1] != "c" {
		t.Errorf("Successors(a) = %v, want [b c]", succ)
	}
	pred := g.Predecessors("c")
	if len(pred) != 2 || pred[0] != "a" || pred[1] != "b" {
		t.Errorf("Predecessors(c) = %v, want [a b]", pred)
	}
}

func TestRootsAndSinks(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(Node{ID: id})
	}
	g.AddEdge(Edge{ID: "e1", Source: "a", Target: "b"})
	g.AddEdge(Edge{ID: "e2", Source: "b", Target: "c"})

	roots := g.Roots()
	if len(roots) != 1 || roots[0].ID != "a" {
		t.Errorf("Roots() = %v, want [a]", roots)
	}
	sinks := g.Sinks()
	if len(sinks) != 1 || sinks[0].ID != "c" {
		t.Errorf("Sinks() = %v, want [c]", sinks)
	}
}

func TestValidateEmptyGraph(t *testing.T) {
	if err := New().Validate(); !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("Validate() = %v, want ErrEmptyGraph", err)
	}
}

func TestClone(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Position: geom.Point{X: 1, Y: 2}})
	g.AddNode(Node{ID: "b"})
	g.AddEdge(Edge{ID: "e1", Source: "a", Target: "b"})

	c := g.Clone()
	n, _ := c.Node("a")
	n.Position.X = 99

	orig, _ := g.Node("a")
	if orig.Position.X != 1 {
		t.Errorf("Clone() shares node storage: original X = %v, want 1", orig.Position.X)
	}
	if c.EdgeCount() != 1 || c.OutDegree("a") != 1 {
		t.Errorf("Clone() edges = %d, out(a) = %d; want 1, 1", c.EdgeCount(), c.OutDegree("a"))
	}
}

func TestFromDocumentSkipsDanglingEdges(t *testing.T) {
	doc := Document{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{
			{ID: "ok", Source: "a", Target: "b"},
			{ID: "bad", Source: "a", Target: "ghost"},
		},
	}

	g, diags, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	if diags.Count(DiagDanglingEdge) != 1 {
		t.Errorf("dangling edge diagnostics = %d, want 1", diags.Count(DiagDanglingEdge))
	}
}

func TestFromDocumentClearsInvalidHandles(t *testing.T) {
	doc := Document{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{ID: "e", Source: "a", Target: "b", SourceHandle: "middle"}},
	}

	g, diags, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if got := g.Edges()[0].SourceHandle; got != "" {
		t.Errorf("SourceHandle = %q, want cleared", got)
	}
	if !diags.Has(DiagInvalidHandle) {
		t.Error("expected invalid_handle diagnostic")
	}
}

func TestFromDocumentDuplicateIDFails(t *testing.T) {
	doc := Document{Nodes: []Node{{ID: "a"}, {ID: "a"}}}
	if _, _, err := FromDocument(doc); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("FromDocument() error = %v, want ErrDuplicateNodeID", err)
	}
}

func TestGraphJSONRoundTrip(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Kind: KindStart, Position: geom.Point{X: 10, Y: 20}})
	g.AddNode(Node{ID: "b", Kind: KindScreen})
	g.AddEdge(Edge{ID: "e1", Source: "a", Target: "b", SourceHandle: geom.AnchorBottom, TargetHandle: geom.AnchorTop})

	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatalf("WriteGraph() error = %v", err)
	}

	got, diags, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph() error = %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
	if got.NodeCount() != 2 || got.EdgeCount() != 1 {
		t.Fatalf("round trip = %d nodes %d edges, want 2, 1", got.NodeCount(), got.EdgeCount())
	}
	n, _ := got.Node("a")
	if n.Position != (geom.Point{X: 10, Y: 20}) {
		t.Errorf("position = %+v, want {10 20}", n.Position)
	}
	e := got.Edges()[0]
	if e.SourceHandle != geom.AnchorBottom || e.TargetHandle != geom.AnchorTop {
		t.Errorf("handles = %q/%q, want bottom/top", e.SourceHandle, e.TargetHandle)
	}
}

func TestKindTable(t *testing.T) {
	tests := []struct {
		kind Kind
		w, h float64
	}{
		{KindStart, 60, 60},
		{KindEnd, 60, 60},
		{KindDecision, 120, 120},
		{KindScreen, 160, 100},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w, h := tt.kind.DefaultSize()
			if w != tt.w || h != tt.h {
				t.Errorf("DefaultSize(%s) = %vx%v, want %vx%v", tt.kind, w, h, tt.w, tt.h)
			}
		})
	}
}

package cli

import (
	"testing"

	"github.com/flowgridhq/flowgrid/pkg/flow"
)

func TestGenerateDiagramStructure(t *testing.T) {
	g, err := generateDiagram(10, 1, 42)
	if err != nil {
		t.Fatalf("generateDiagram() error: %v", err)
	}

	// 10 flow nodes plus one frame.
	if got := g.NodeCount(); got != 11 {
		t.Errorf("NodeCount() = %d, want 11", got)
	}

	starts, ends, frames := 0, 0, 0
	for _, n := range g.Nodes() {
		switch n.Kind {
		case flow.KindStart:
			starts++
		case flow.KindEnd:
			ends++
		case flow.KindFrame:
			frames++
			if len(n.Contents) < 2 {
				t.Errorf("frame %s has %d members, want >= 2", n.ID, len(n.Contents))
			}
		}
	}
	if starts != 1 {
		t.Errorf("start nodes = %d, want 1", starts)
	}
	if ends != 1 {
		t.Errorf("end nodes = %d, want 1", ends)
	}
	if frames != 1 {
		t.Errorf("frame nodes = %d, want 1", frames)
	}

	// Every edge must connect existing nodes.
	for _, e := range g.Edges() {
		if _, ok := g.Node(e.Source); !ok {
			t.Errorf("edge %s has unknown source %s", e.ID, e.Source)
		}
		if _, ok := g.Node(e.Target); !ok {
			t.Errorf("edge %s has unknown target %s", e.ID, e.Target)
		}
	}
}

func TestGenerateDiagramDeterministic(t *testing.T) {
	a, err := generateDiagram(12, 2, 7)
	if err != nil {
		t.Fatalf("generateDiagram() error: %v", err)
	}
	b, err := generateDiagram(12, 2, 7)
	if err != nil {
		t.Fatalf("generateDiagram() error: %v", err)
	}

	aj, err := flow.MarshalGraph(a)
	if err != nil {
		t.Fatalf("MarshalGraph() error: %v", err)
	}
	bj, err := flow.MarshalGraph(b)
	if err != nil {
		t.Fatalf("MarshalGraph() error: %v", err)
	}
	if string(aj) != string(bj) {
		t.Error("same seed should produce identical diagrams")
	}
}

func TestGenerateDiagramDifferentSeeds(t *testing.T) {
	a, _ := generateDiagram(12, 0, 1)
	b, _ := generateDiagram(12, 0, 2)

	aj, _ := flow.MarshalGraph(a)
	bj, _ := flow.MarshalGraph(b)
	if string(aj) == string(bj) {
		t.Error("different seeds should produce different diagrams")
	}
}

func TestGenerateDiagramNoFrames(t *testing.T) {
	g, err := generateDiagram(6, 0, 42)
	if err != nil {
		t.Fatalf("generateDiagram() error: %v", err)
	}
	for _, n := range g.Nodes() {
		if n.Kind == flow.KindFrame {
			t.Errorf("found frame %s with frames=0", n.ID)
		}
	}
}

package analyze

import (
	"testing"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

func build(t *testing.T, nodes []flow.Node, edges []flow.Edge) *flow.Graph {
	t.Helper()
	g := flow.New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s) error = %v", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s) error = %v", e.ID, err)
		}
	}
	return g
}

func chain(t *testing.T, ids ...string) *flow.Graph {
	t.Helper()
	g := flow.New()
	for _, id := range ids {
		g.AddNode(flow.Node{ID: id})
	}
	for i := 0; i+1 < len(ids); i++ {
		g.AddEdge(flow.Edge{ID: ids[i] + "-" + ids[i+1], Source: ids[i], Target: ids[i+1]})
	}
	return g
}

func TestLevelsChain(t *testing.T) {
	a := Analyze(chain(t, "a", "b", "c", "d"))

	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}
	for id, lvl := range want {
		if a.Levels[id] != lvl {
			t.Errorf("Levels[%s] = %d, want %d", id, a.Levels[id], lvl)
		}
	}
	if a.Depth != 4 {
		t.Errorf("Depth = %d, want 4", a.Depth)
	}
	if a.Width != 1 {
		t.Errorf("Width = %d, want 1", a.Width)
	}
}

func TestLevelsDiamondUsesLongestPath(t *testing.T) {
	// a -> b -> d and a -> d directly. Longest-path layering must place d
	// at level 2, not level 1.
	g := build(t,
		[]flow.Node{{ID: "a"}, {ID: "b"}, {ID: "d"}},
		[]flow.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "d"},
			{ID: "e3", Source: "a", Target: "d"},
		})

	a := Analyze(g)
	if a.Levels["d"] != 2 {
		t.Errorf("Levels[d] = %d, want 2", a.Levels["d"])
	}
	// The direct a->d edge spans two levels downward, so it is not a back edge.
	if a.HasBackEdges {
		t.Error("HasBackEdges = true, want false")
	}
}

func TestCycleDetection(t *testing.T) {
	g := build(t,
		[]flow.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]flow.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "c"},
			{ID: "e3", Source: "c", Target: "a"},
		})

	a := Analyze(g)
	if !a.HasCycles {
		t.Error("HasCycles = false, want true")
	}
	if !a.HasBackEdges {
		t.Error("HasBackEdges = false, want true")
	}
	if len(a.BackEdges) == 0 {
		t.Error("BackEdges is empty, want at least one flagged edge")
	}
}

func TestNoCycles(t *testing.T) {
	a := Analyze(chain(t, "a", "b", "c"))
	if a.HasCycles {
		t.Error("HasCycles = true, want false")
	}
	if a.HasBackEdges {
		t.Error("HasBackEdges = true, want false")
	}
}

func TestDisconnectedNodeDefaultsToLevelZero(t *testing.T) {
	g := build(t,
		[]flow.Node{{ID: "a"}, {ID: "b"}, {ID: "island"}},
		[]flow.Edge{{ID: "e1", Source: "a", Target: "b"}})

	a := Analyze(g)
	if a.Levels["island"] != 0 {
		t.Errorf("Levels[island] = %d, want 0", a.Levels["island"])
	}
	if a.Components != 2 {
		t.Errorf("Components = %d, want 2", a.Components)
	}
}

func TestSpineLongestPath(t *testing.T) {
	// start -> s1 -> s2 -> end is longer than start -> short -> end.
	g := build(t,
		[]flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "s1"}, {ID: "s2"}, {ID: "short"},
			{ID: "end", Kind: flow.KindEnd},
		},
		[]flow.Edge{
			{ID: "e1", Source: "start", Target: "s1"},
			{ID: "e2", Source: "s1", Target: "s2"},
			{ID: "e3", Source: "s2", Target: "end"},
			{ID: "e4", Source: "start", Target: "short"},
			{ID: "e5", Source: "short", Target: "end"},
		})

	a := Analyze(g)
	want := []string{"start", "s1", "s2", "end"}
	if len(a.Spine) != len(want) {
		t.Fatalf("Spine = %v, want %v", a.Spine, want)
	}
	for i := range want {
		if a.Spine[i] != want[i] {
			t.Fatalf("Spine = %v, want %v", a.Spine, want)
		}
	}
	if !a.OnSpine("s1") || a.OnSpine("short") {
		t.Error("OnSpine membership wrong")
	}
	if !a.SpineEdge(flow.Edge{Source: "s1", Target: "s2"}) {
		t.Error("SpineEdge(s1->s2) = false, want true")
	}
	if a.SpineEdge(flow.Edge{Source: "start", Target: "short"}) {
		t.Error("SpineEdge(start->short) = true, want false")
	}
}

func TestSpineFallbackWithoutTerminals(t *testing.T) {
	// A cycle with a tail: no explicit start/end kinds, the root is "t0".
	g := build(t,
		[]flow.Node{{ID: "t0"}, {ID: "t1"}, {ID: "t2"}},
		[]flow.Edge{
			{ID: "e1", Source: "t0", Target: "t1"},
			{ID: "e2", Source: "t1", Target: "t2"},
			{ID: "e3", Source: "t2", Target: "t1"},
		})

	a := Analyze(g)
	if len(a.Spine) < 2 {
		t.Errorf("Spine = %v, want a path of at least 2 nodes", a.Spine)
	}
}

func TestFlowDirection(t *testing.T) {
	vertical := build(t,
		[]flow.Node{
			{ID: "a", Position: geom.Point{X: 0, Y: 0}},
			{ID: "b", Position: geom.Point{X: 0, Y: 200}},
		},
		[]flow.Edge{{ID: "e1", Source: "a", Target: "b"}})
	if got := Analyze(vertical).Direction; got != FlowVertical {
		t.Errorf("Direction = %v, want vertical", got)
	}

	horizontal := build(t,
		[]flow.Node{
			{ID: "a", Position: geom.Point{X: 0, Y: 0}},
			{ID: "b", Position: geom.Point{X: 300, Y: 10}},
		},
		[]flow.Edge{{ID: "e1", Source: "a", Target: "b"}})
	if got := Analyze(horizontal).Direction; got != FlowHorizontal {
		t.Errorf("Direction = %v, want horizontal", got)
	}

	// Unpositioned graphs default to vertical.
	if got := Analyze(chain(t, "a", "b")).Direction; got != FlowVertical {
		t.Errorf("Direction (unpositioned) = %v, want vertical", got)
	}
}

func TestDensityAndBranching(t *testing.T) {
	g := build(t,
		[]flow.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]flow.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "a", Target: "c"},
		})

	a := Analyze(g)
	if want := 2.0 / 6.0; a.Density != want {
		t.Errorf("Density = %v, want %v", a.Density, want)
	}
	if a.BranchingFactor != 2 {
		t.Errorf("BranchingFactor = %v, want 2", a.BranchingFactor)
	}
}

// Package analyze computes the structural profile of a diagram graph that
// the layout engine's later phases consume: per-node levels, cycle and
// back-edge detection, the spine (longest root-to-sink path), flow
// direction, and density metrics.
//
// Analysis is read-only: it never mutates the graph. Every traversal runs
// over the graph's insertion-ordered node list, so results are deterministic
// for identical input.
package analyze

import (
	"math"

	"github.com/flowgridhq/flowgrid/pkg/flow"
)

// FlowDirection summarizes the dominant edge orientation in the input
// positions, derived from an edge-vector angle histogram.
type FlowDirection string

const (
	FlowVertical   FlowDirection = "vertical"
	FlowHorizontal FlowDirection = "horizontal"
	FlowMixed      FlowDirection = "mixed"
)

// Analysis is the read-only structural profile of a graph. It is rebuilt
// fresh at the start of every layout run and discarded at the end.
type Analysis struct {
	Direction       FlowDirection
	Density         float64 // edges / possible edges
	BranchingFactor float64 // average out-degree among branching nodes
	Depth           int     // longest-path level count
	Width           int     // widest level
	HasCycles       bool
	HasBackEdges    bool
	Components      int

	// Levels maps node ID to its layer, computed by longest-path layering
	// from the root set. Disconnected and cycle-locked nodes default to 0.
	Levels map[string]int

	// Spine is the longest simple path from a root-like node to a sink-like
	// node, as a sequence of node IDs. Empty for graphs with no usable pair.
	Spine []string

	// BackEdges holds the indices (into the graph's edge slice) of edges
	// whose target level is at or above their source level.
	BackEdges map[int]bool

	spineSet map[string]bool
}

// OnSpine reports whether the node lies on the spine.
func (a *Analysis) OnSpine(id string) bool { return a.spineSet[id] }

// SpineEdge reports whether both endpoints of the edge lie on the spine in
// consecutive spine order.
func (a *Analysis) SpineEdge(e flow.Edge) bool {
	for i := 0; i+1 < len(a.Spine); i++ {
		if a.Spine[i] == e.Source && a.Spine[i+1] == e.Target {
			return true
		}
	}
	return false
}

// Analyze computes the full structural profile of g.
func Analyze(g *flow.Graph) *Analysis {
	a := &Analysis{
		Levels:    make(map[string]int),
		BackEdges: make(map[int]bool),
		spineSet:  make(map[string]bool),
	}

	dfsBack := detectCycles(g)
	a.HasCycles = len(dfsBack) > 0

	a.Levels = assignLevels(g, dfsBack)
	for _, lvl := range a.Levels {
		if lvl+1 > a.Depth {
			a.Depth = lvl + 1
		}
	}

	widths := make(map[int]int)
	for _, id := range g.NodeIDs() {
		widths[a.Levels[id]]++
	}
	for _, w := range widths {
		if w > a.Width {
			a.Width = w
		}
	}

	// A back edge flows sideways or upward in the computed layering. This is
	// a superset of the DFS back edges: diamond re-joins at the same level
	// count too, and both bias spacing and the readability score.
	for i, e := range g.Edges() {
		if a.Levels[e.Target] <= a.Levels[e.Source] {
			a.BackEdges[i] = true
		}
	}
	a.HasBackEdges = len(a.BackEdges) > 0

	a.Direction = flowDirection(g)
	a.Density = density(g)
	a.BranchingFactor = branchingFactor(g)
	a.Components = countComponents(g)

	a.Spine = computeSpine(g, dfsBack)
	for _, id := range a.Spine {
		a.spineSet[id] = true
	}

	return a
}

// detectCycles runs a depth-first search with a recursion-stack set and
// returns the set of back edges (by edge index) that close a cycle.
func detectCycles(g *flow.Graph) map[int]bool {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	back := make(map[int]bool)

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, ei := range g.Outgoing(id) {
			child := g.Edge(ei).Target
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back[ei] = true
			}
		}
		color[id] = black
	}

	for _, n := range g.Roots() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, id := range g.NodeIDs() {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}

// assignLevels computes longest-path layering with Kahn's algorithm,
// ignoring the DFS back edges so cyclic graphs still terminate. Each node
// lands at one plus the maximum level of its effective parents, which keeps
// levels monotonic even through diamond-shaped subgraphs.
func assignLevels(g *flow.Graph, skip map[int]bool) map[string]int {
	levels := make(map[string]int, g.NodeCount())
	inDeg := make(map[string]int, g.NodeCount())

	for _, id := range g.NodeIDs() {
		for _, ei := range g.Incoming(id) {
			if !skip[ei] {
				inDeg[id]++
			}
		}
	}

	queue := make([]string, 0, g.NodeCount())
	for _, id := range g.NodeIDs() {
		if inDeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, ei := range g.Outgoing(curr) {
			if skip[ei] {
				continue
			}
			child := g.Edge(ei).Target
			if lvl := levels[curr] + 1; lvl > levels[child] {
				levels[child] = lvl
			}
			inDeg[child]--
			if inDeg[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return levels
}

// flowDirection buckets edge vectors by their dominant axis. Two thirds of
// the edges agreeing on one axis decides the direction; anything less is
// mixed. Graphs without positioned edges default to vertical, the engine's
// native layout direction.
func flowDirection(g *flow.Graph) FlowDirection {
	vertical, horizontal := 0, 0
	for _, e := range g.Edges() {
		src, okS := g.Node(e.Source)
		dst, okD := g.Node(e.Target)
		if !okS || !okD {
			continue
		}
		v := dst.Center().Sub(src.Center())
		if v.Len() == 0 {
			continue
		}
		if math.Abs(v.Y) >= math.Abs(v.X) {
			vertical++
		} else {
			horizontal++
		}
	}
	total := vertical + horizontal
	if total == 0 {
		return FlowVertical
	}
	switch {
	case float64(vertical)/float64(total) >= 2.0/3.0:
		return FlowVertical
	case float64(horizontal)/float64(total) >= 2.0/3.0:
		return FlowHorizontal
	}
	return FlowMixed
}

func density(g *flow.Graph) float64 {
	n := g.NodeCount()
	if n < 2 {
		return 0
	}
	possible := n * (n - 1)
	return float64(g.EdgeCount()) / float64(possible)
}

func branchingFactor(g *flow.Graph) float64 {
	sum, branching := 0, 0
	for _, id := range g.NodeIDs() {
		if d := g.OutDegree(id); d > 1 {
			sum += d
			branching++
		}
	}
	if branching == 0 {
		return 0
	}
	return float64(sum) / float64(branching)
}

// countComponents walks the graph as undirected and counts connected
// components.
func countComponents(g *flow.Graph) int {
	visited := make(map[string]bool, g.NodeCount())
	components := 0

	for _, start := range g.NodeIDs() {
		if visited[start] {
			continue
		}
		components++
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]
			for _, next := range g.Successors(curr) {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
			for _, next := range g.Predecessors(curr) {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	return components
}

// computeSpine finds the longest path between any root-like node (no
// incoming edges, or explicit start kind) and any sink-like node (no
// outgoing edges, or explicit end kind) via per-pair BFS, taking the
// longest-by-hops result. When no start/sink pair is connected it falls
// back to the longest DFS path from any root.
func computeSpine(g *flow.Graph, skip map[int]bool) []string {
	starts := rootLike(g)
	ends := sinkLike(g)

	var best []string
	for _, s := range starts {
		paths := bfsPaths(g, s, skip)
		for _, e := range ends {
			if p, ok := paths[e]; ok && len(p) > len(best) {
				best = p
			}
		}
	}
	if len(best) > 1 {
		return best
	}

	for _, s := range starts {
		if p := dfsLongest(g, s, skip); len(p) > len(best) {
			best = p
		}
	}
	if len(best) > 1 {
		return best
	}
	return nil
}

func rootLike(g *flow.Graph) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		if n.Kind == flow.KindStart || g.InDegree(n.ID) == 0 {
			if !seen[n.ID] {
				seen[n.ID] = true
				out = append(out, n.ID)
			}
		}
	}
	return out
}

func sinkLike(g *flow.Graph) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		if n.Kind == flow.KindEnd || g.OutDegree(n.ID) == 0 {
			if !seen[n.ID] {
				seen[n.ID] = true
				out = append(out, n.ID)
			}
		}
	}
	return out
}

// bfsPaths returns the shortest path by hops from start to every reachable
// node, as full ID sequences.
func bfsPaths(g *flow.Graph, start string, skip map[int]bool) map[string][]string {
	paths := map[string][]string{start: {start}}
	queue := []string{start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, ei := range g.Outgoing(curr) {
			if skip[ei] {
				continue
			}
			next := g.Edge(ei).Target
			if _, ok := paths[next]; ok {
				continue
			}
			p := make([]string, len(paths[curr])+1)
			copy(p, paths[curr])
			p[len(p)-1] = next
			paths[next] = p
			queue = append(queue, next)
		}
	}
	return paths
}

// dfsLongest returns the longest simple path starting at start, skipping
// back edges.
func dfsLongest(g *flow.Graph, start string, skip map[int]bool) []string {
	onPath := make(map[string]bool)
	var best, curr []string

	var dfs func(id string)
	dfs = func(id string) {
		onPath[id] = true
		curr = append(curr, id)
		if len(curr) > len(best) {
			best = append([]string(nil), curr...)
		}
		for _, ei := range g.Outgoing(id) {
			if skip[ei] {
				continue
			}
			next := g.Edge(ei).Target
			if !onPath[next] {
				dfs(next)
			}
		}
		curr = curr[:len(curr)-1]
		onPath[id] = false
	}

	dfs(start)
	return best
}

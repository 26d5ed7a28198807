package layout

import (
	"slices"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

// Handle scoring weights. Scores are costs: lower is better.
const (
	naturalFlowBonus = -200.0 // axis-aligned flow in the natural direction
	backwardPenalty  = 300.0  // anchor facing away from the other endpoint
	obstaclePenalty  = 500.0  // per node box the straight segment crosses
	crowdingPenalty  = 250.0  // per edge already using the anchor in the same direction
	straightBonus    = -150.0 // pass-through pair on opposite sides
)

// handleUsage tracks, per anchor, how many edges use it as an outgoing
// source and how many as an incoming target. The strict separation
// invariant says the two sets are never both non-empty for the same anchor.
type handleUsage struct {
	out map[geom.Anchor]int
	in  map[geom.Anchor]int
}

func newHandleUsage() *handleUsage {
	return &handleUsage{
		out: make(map[geom.Anchor]int, 4),
		in:  make(map[geom.Anchor]int, 4),
	}
}

// legalOut reports whether the anchor can take another outgoing edge
// without mixing directions.
func (u *handleUsage) legalOut(a geom.Anchor) bool { return u.in[a] == 0 }

// legalIn reports whether the anchor can take another incoming edge.
func (u *handleUsage) legalIn(a geom.Anchor) bool { return u.out[a] == 0 }

// leastUsed returns the anchor with the fewest total users, scanning in the
// fixed anchor order so ties resolve deterministically.
func (u *handleUsage) leastUsed() geom.Anchor {
	best := geom.Anchors[0]
	bestCount := u.out[best] + u.in[best]
	for _, a := range geom.Anchors[1:] {
		if c := u.out[a] + u.in[a]; c < bestCount {
			best, bestCount = a, c
		}
	}
	return best
}

// assignHandles picks one of the four anchors for every edge endpoint,
// enforcing the separation invariant, then runs the flow-continuity pass
// over pass-through nodes.
func (r *run) assignHandles() {
	usage := make(map[string]*handleUsage, r.g.NodeCount())
	for _, id := range r.g.NodeIDs() {
		usage[id] = newHandleUsage()
	}

	for _, ei := range r.prioritizeEdges() {
		r.assignEdge(ei, usage)
	}

	r.optimizeFlowThrough(usage)
}

// prioritizeEdges orders edge indices so the most structurally important
// edges choose their anchors first: spine edges, then edges touching
// terminal (start/end) nodes, then edges touching any spine node, then the
// rest. The sort is stable over edge insertion order.
func (r *run) prioritizeEdges() []int {
	edges := r.g.Edges()
	order := make([]int, len(edges))
	for i := range order {
		order[i] = i
	}

	prio := func(e flow.Edge) int {
		src, okS := r.g.Node(e.Source)
		dst, okD := r.g.Node(e.Target)
		switch {
		case r.an.SpineEdge(e):
			return 0
		case okS && src.Kind.IsTerminal(), okD && dst.Kind.IsTerminal():
			return 1
		case r.an.OnSpine(e.Source) || r.an.OnSpine(e.Target):
			return 2
		}
		return 3
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return prio(edges[a]) - prio(edges[b])
	})
	return order
}

// assignEdge scores every legal 4×4 anchor combination for the edge and
// commits the cheapest. When a side has all four anchors blocked by the
// separation invariant, the edge degrades to the least-used anchor and the
// violation is recorded as a diagnostic instead of failing the run.
func (r *run) assignEdge(ei int, usage map[string]*handleUsage) {
	e := r.g.Edge(ei)
	src, okS := r.g.Node(e.Source)
	dst, okD := r.g.Node(e.Target)
	if !okS || !okD {
		return
	}
	su, du := usage[e.Source], usage[e.Target]
	selfLoop := e.Source == e.Target

	bestScore := 0.0
	var bestSrc, bestDst geom.Anchor
	found := false

	for _, sa := range geom.Anchors {
		if !su.legalOut(sa) {
			continue
		}
		for _, ta := range geom.Anchors {
			if selfLoop && sa == ta {
				continue
			}
			if !du.legalIn(ta) {
				continue
			}
			score := r.scoreCombo(src, dst, sa, ta, su, du)
			if !found || score < bestScore {
				found = true
				bestScore, bestSrc, bestDst = score, sa, ta
			}
		}
	}

	if !found {
		// All anchors exhausted on at least one side: fall back to the
		// least-used anchors regardless of the separation invariant.
		bestSrc, bestDst = su.leastUsed(), du.leastUsed()
		if selfLoop && bestSrc == bestDst {
			bestDst = bestDst.Opposite()
		}
		r.diags.Add(flow.DiagHandleExhausted, e.ID,
			"no anchor pair satisfies in/out separation between %s and %s", e.Source, e.Target)
	}

	e.SourceHandle, e.TargetHandle = bestSrc, bestDst
	su.out[bestSrc]++
	du.in[bestDst]++
}

// scoreCombo computes the cost of attaching the edge at (sa, ta):
// straight-line length, a bonus for natural axis-aligned flow, penalties
// for anchors facing away from the other endpoint, for every unrelated node
// box the straight segment crosses, and for crowding onto an anchor other
// edges already use in the same direction.
func (r *run) scoreCombo(src, dst *flow.Node, sa, ta geom.Anchor, su, du *handleUsage) float64 {
	p1 := geom.AnchorPoint(r.nodeBounds(src.ID), sa)
	p2 := geom.AnchorPoint(r.nodeBounds(dst.ID), ta)
	score := p1.Dist(p2)

	d := dst.Center().Sub(src.Center())
	if natSrc, natDst, ok := naturalPair(d); ok && sa == natSrc && ta == natDst {
		score += naturalFlowBonus
	}
	if dot(anchorDir(sa), d) < 0 {
		score += backwardPenalty
	}
	if dot(anchorDir(ta), d.Scale(-1)) < 0 {
		score += backwardPenalty
	}

	score += crowdingPenalty * float64(su.out[sa])
	score += crowdingPenalty * float64(du.in[ta])

	for _, n := range r.g.Nodes() {
		if n.ID == src.ID || n.ID == dst.ID || n.IsFrame() {
			continue
		}
		if geom.SegmentIntersectsRect(p1, p2, r.nodeBounds(n.ID)) {
			score += obstaclePenalty
		}
	}
	return score
}

// naturalPair returns the anchor pair for straight axis-aligned flow in the
// dominant direction of d: bottom→top when the target is below, right→left
// when it is to the right, and so on. ok is false for a zero vector.
func naturalPair(d geom.Point) (src, dst geom.Anchor, ok bool) {
	if d.X == 0 && d.Y == 0 {
		return "", "", false
	}
	if abs(d.Y) >= abs(d.X) {
		if d.Y > 0 {
			return geom.AnchorBottom, geom.AnchorTop, true
		}
		return geom.AnchorTop, geom.AnchorBottom, true
	}
	if d.X > 0 {
		return geom.AnchorRight, geom.AnchorLeft, true
	}
	return geom.AnchorLeft, geom.AnchorRight, true
}

// anchorDir returns the outward unit direction of an anchor.
func anchorDir(a geom.Anchor) geom.Point {
	switch a {
	case geom.AnchorTop:
		return geom.Point{Y: -1}
	case geom.AnchorRight:
		return geom.Point{X: 1}
	case geom.AnchorBottom:
		return geom.Point{Y: 1}
	default:
		return geom.Point{X: -1}
	}
}

func dot(a, b geom.Point) float64 { return a.X*b.X + a.Y*b.Y }

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// optimizeFlowThrough revisits every pass-through node (exactly one
// incoming and one outgoing edge) and jointly re-picks its pair of anchors
// to minimize the total path length through the node. Identical anchors
// for in and out are forbidden (no U-turns) and opposite sides earn a
// straight-through bonus.
func (r *run) optimizeFlowThrough(usage map[string]*handleUsage) {
	for _, id := range r.g.NodeIDs() {
		in := r.g.Incoming(id)
		out := r.g.Outgoing(id)
		if len(in) != 1 || len(out) != 1 {
			continue
		}
		inEdge, outEdge := r.g.Edge(in[0]), r.g.Edge(out[0])
		if inEdge.Source == id || outEdge.Target == id {
			continue // self loop, leave as assigned
		}
		upstream, okU := r.g.Node(inEdge.Source)
		downstream, okD := r.g.Node(outEdge.Target)
		if !okU || !okD {
			continue
		}

		u := usage[id]
		// Release the node's current pair so legality reflects only other
		// edges' usage.
		u.in[inEdge.TargetHandle]--
		u.out[outEdge.SourceHandle]--

		from := geom.AnchorPoint(r.nodeBounds(upstream.ID), inEdge.SourceHandle)
		to := geom.AnchorPoint(r.nodeBounds(downstream.ID), outEdge.TargetHandle)
		nb := r.nodeBounds(id)

		bestIn, bestOut := inEdge.TargetHandle, outEdge.SourceHandle
		bestScore := pathScore(from, to, nb, bestIn, bestOut)

		for _, ia := range geom.Anchors {
			if !u.legalIn(ia) || u.out[ia] > 0 {
				continue
			}
			for _, oa := range geom.Anchors {
				if oa == ia {
					continue
				}
				if !u.legalOut(oa) || u.in[oa] > 0 {
					continue
				}
				if score := pathScore(from, to, nb, ia, oa); score < bestScore {
					bestScore, bestIn, bestOut = score, ia, oa
				}
			}
		}

		inEdge.TargetHandle, outEdge.SourceHandle = bestIn, bestOut
		u.in[bestIn]++
		u.out[bestOut]++
	}
}

// pathScore measures the through-node path upstream → in-anchor →
// out-anchor → downstream, with a bonus for straight-through pairs.
func pathScore(from, to geom.Point, nb geom.Rect, in, out geom.Anchor) float64 {
	pin := geom.AnchorPoint(nb, in)
	pout := geom.AnchorPoint(nb, out)
	score := from.Dist(pin) + pin.Dist(pout) + pout.Dist(to)
	if in.Opposite() == out {
		score += straightBonus
	}
	return score
}

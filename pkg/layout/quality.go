package layout

import (
	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

// refineThreshold is the total score below which the refinement pass runs.
const refineThreshold = 0.8

// Normalization ceilings for the individual subscores. Layouts beyond these
// budgets bottom out at zero rather than going negative.
const (
	edgeLengthBudget = 10000.0 // summed straight-line edge length
	crossingBudget   = 20.0    // edge pair crossings
	areaBudget       = 1e6     // bounding-box area of the arrangement
	backEdgeCost     = 0.05    // flow score lost per cycle-breaking edge
)

// Score grades one arrangement. Every subscore is normalized to [0,1] and
// Total is their plain average, so each aspect carries equal weight.
type Score struct {
	EdgeLength float64 `json:"edge_length"`
	Crossings  float64 `json:"crossings"`
	Overlap    float64 `json:"overlap"`
	Compact    float64 `json:"compact"`
	Flow       float64 `json:"flow"`
	Total      float64 `json:"total"`
}

// score grades the current arrangement.
func (r *run) score() Score {
	s := Score{
		EdgeLength: clamp01(1 - r.totalEdgeLength()/edgeLengthBudget),
		Crossings:  clamp01(1 - float64(r.countCrossings())/crossingBudget),
		Overlap:    1,
		Compact:    clamp01(1 - r.arrangementBounds().Area()/areaBudget),
		Flow:       clamp01(1 - backEdgeCost*float64(len(r.an.BackEdges))),
	}
	if r.countOverlaps() > 0 {
		s.Overlap = 0
	}
	s.Total = (s.EdgeLength + s.Crossings + s.Overlap + s.Compact + s.Flow) / 5
	return s
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// totalEdgeLength sums the straight-line anchor-to-anchor length of every
// edge.
func (r *run) totalEdgeLength() float64 {
	total := 0.0
	for _, seg := range r.edgeSegments() {
		total += seg.p1.Dist(seg.p2)
	}
	return total
}

type segment struct {
	p1, p2 geom.Point
}

// edgeSegments returns every edge as a straight segment between its
// assigned anchor points, in edge order.
func (r *run) edgeSegments() []segment {
	segs := make([]segment, 0, r.g.EdgeCount())
	for _, e := range r.g.Edges() {
		src, okS := r.g.Node(e.Source)
		dst, okD := r.g.Node(e.Target)
		if !okS || !okD {
			continue
		}
		segs = append(segs, segment{
			p1: geom.AnchorPoint(r.nodeBounds(src.ID), e.SourceHandle),
			p2: geom.AnchorPoint(r.nodeBounds(dst.ID), e.TargetHandle),
		})
	}
	return segs
}

// countCrossings counts intersecting edge segment pairs. Segments sharing a
// node anchor do not count; fanning out of one anchor is not a crossing.
func (r *run) countCrossings() int {
	segs := r.edgeSegments()
	count := 0
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			a, b := segs[i], segs[j]
			if a.p1 == b.p1 || a.p1 == b.p2 || a.p2 == b.p1 || a.p2 == b.p2 {
				continue
			}
			if geom.SegmentsIntersect(a.p1, a.p2, b.p1, b.p2) {
				count++
			}
		}
	}
	return count
}

// countOverlaps counts overlapping top-level item pairs. Frame membership is
// honored: a member overlapping its own frame is containment, not collision.
func (r *run) countOverlaps() int {
	items := r.topLevelItems()
	count := 0
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if r.nodeBounds(items[i].ID).Overlaps(r.nodeBounds(items[j].ID)) {
				count++
			}
		}
	}
	return count
}

// arrangementBounds returns the bounding box of every node in the graph, or
// the zero rect for an arrangement with no nodes.
func (r *run) arrangementBounds() geom.Rect {
	var bounds geom.Rect
	first := true
	for _, n := range r.g.Nodes() {
		if first {
			bounds = r.nodeBounds(n.ID)
			first = false
			continue
		}
		bounds = bounds.Union(r.nodeBounds(n.ID))
	}
	return bounds
}

// refine runs targeted cleanup when the score falls below the threshold:
// a centroid pull when the arrangement sprawls, and greedy vertical swaps
// when edges cross excessively. Both moves respect pinning and frame
// membership, and both are followed by a spacing sweep so refinement never
// reintroduces overlaps.
func (r *run) refine(s Score) {
	r.log.Debug("refining layout", "score", s.Total)

	if s.Compact < refineThreshold {
		r.pullToCentroid()
	}
	if s.Crossings < refineThreshold {
		r.reduceCrossings()
	}

	items := r.topLevelItems()
	r.enforceSpacing(items)
	r.clampFrameMembers()
}

// pullToCentroid moves every top-level item a fraction of the way toward
// the arrangement centroid, scaled by the configured compactness.
func (r *run) pullToCentroid() {
	items := r.topLevelItems()
	if len(items) == 0 {
		return
	}
	var centroid geom.Point
	for _, n := range items {
		centroid = centroid.Add(r.nodeBounds(n.ID).Center())
	}
	centroid = centroid.Scale(1 / float64(len(items)))

	pull := 0.2 * r.cfg.Compactness * 2 // 20% at the default compactness
	for _, n := range items {
		if !r.movable(n) {
			continue
		}
		r.translate(n, centroid.Sub(r.nodeBounds(n.ID).Center()).Scale(pull))
	}
}

// reduceCrossings greedily swaps the positions of same-level item pairs
// whenever the swap lowers the global crossing count. One sweep only; this
// is cleanup, not an ordering solver.
func (r *run) reduceCrossings() {
	items := r.topLevelItems()
	best := r.countCrossings()
	if best == 0 {
		return
	}

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			if !r.movable(a) || !r.movable(b) {
				continue
			}
			if r.itemLevel(a) != r.itemLevel(b) {
				continue
			}

			pa, pb := a.Position, b.Position
			r.swapItems(a, b)
			if after := r.countCrossings(); after < best {
				best = after
				continue
			}
			// Swap back.
			r.translateTo(a, pa)
			r.translateTo(b, pb)
		}
	}
}

// swapItems exchanges the positions of two items, dragging frame contents.
func (r *run) swapItems(a, b *flow.Node) {
	pa, pb := a.Position, b.Position
	r.translateTo(a, pb)
	r.translateTo(b, pa)
}

package layout

import (
	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

const (
	// damping scales accumulated displacements each round. Full-strength
	// pushes oscillate on chains of overlapping nodes; 0.6 settles them.
	damping = 0.6

	// stuckBoost is the one-shot multiplier applied when a round resolves
	// nothing, to kick the arrangement out of a force equilibrium.
	stuckBoost = 1.5

	severityOverlap = 1.0
	severityEdge    = 0.5
	severityFrame   = 1.0
)

// displacement accumulates severity-weighted pushes for one item during a
// resolution round.
type displacement struct {
	sum    geom.Point
	weight float64
}

// resolveCollisions iteratively pushes top-level items apart until node
// boxes keep their minimum spacing, edges clear unrelated boxes, and frames
// exclude non-members. Frames move as units, dragging their frozen contents.
// Returns the number of rounds run and whether the loop reached zero
// collisions before the iteration cap.
func (r *run) resolveCollisions() (int, bool) {
	items := r.topLevelItems()

	boost := 1.0
	prev := -1
	iterations := 0
	converged := false

	for iterations < r.cfg.MaxIterations {
		iterations++

		disp := make(map[string]*displacement, len(items))
		count := r.collectPushes(items, disp)

		if count == 0 {
			converged = true
			break
		}

		// Same collision count as last round means the pushes cancelled
		// out. Boost once to break the equilibrium, then fall back to
		// normal damping.
		scale := damping * boost
		boost = 1.0
		if count == prev {
			boost = stuckBoost
		}
		prev = count

		for _, n := range items {
			d, ok := disp[n.ID]
			if !ok || d.weight == 0 || !r.movable(n) {
				continue
			}
			r.translate(n, d.sum.Scale(scale/d.weight))
		}

		r.clampFrameMembers()
	}

	residual := r.enforceSpacing(items)
	r.clampFrameMembers()

	if residual > 0 {
		converged = false
		r.diags.Add(flow.DiagResidualCollisions, "",
			"%d overlap(s) remain after %d iteration(s)", residual, iterations)
	}
	r.log.Debug("collision resolution", "iterations", iterations, "converged", converged, "residual", residual)
	return iterations, converged
}

// topLevelItems returns the items the solver moves directly: free nodes and
// frames. Frame members are excluded; they travel with their frame.
func (r *run) topLevelItems() []*flow.Node {
	var items []*flow.Node
	for _, n := range r.g.Nodes() {
		if r.frames.ownerOf(n.ID) != "" {
			continue
		}
		items = append(items, n)
	}
	return items
}

// collectPushes scans for all three collision classes and accumulates the
// resulting pushes into disp. Returns the number of collisions found.
func (r *run) collectPushes(items []*flow.Node, disp map[string]*displacement) int {
	count := 0
	count += r.pushOverlaps(items, disp)
	count += r.pushEdgeClearance(items, disp)
	count += r.pushFrameExclusion(items, disp)
	return count
}

// pushOverlaps pushes every overlapping item pair apart along the vector
// between their centers, half the remaining overlap each.
func (r *run) pushOverlaps(items []*flow.Node, disp map[string]*displacement) int {
	count := 0
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			gap := r.requiredGap(a, b)
			ra := r.nodeBounds(a.ID).Inset(-gap / 2)
			rb := r.nodeBounds(b.ID).Inset(-gap / 2)
			if !ra.Overlaps(rb) {
				continue
			}
			count++

			inter, _ := ra.Intersection(rb)
			// Push along the shallower axis of penetration so nodes
			// separate with the smallest possible move.
			dir := b.Center().Sub(a.Center())
			var push geom.Point
			if inter.W <= inter.H {
				push = geom.Point{X: inter.W / 2}
				if dir.X < 0 {
					push.X = -push.X
				}
			} else {
				push = geom.Point{Y: inter.H / 2}
				if dir.Y < 0 {
					push.Y = -push.Y
				}
			}
			if dir.X == 0 && dir.Y == 0 {
				// Coincident centers: separate along x by insertion order.
				push = geom.Point{X: inter.W / 2}
			}

			addPush(disp, b.ID, push, severityOverlap)
			addPush(disp, a.ID, push.Scale(-1), severityOverlap)
		}
	}
	return count
}

// requiredGap is the minimum clearance between two items, scaled by the
// larger of their kind spacing factors.
func (r *run) requiredGap(a, b *flow.Node) float64 {
	fa, fb := a.Kind.SpacingFactor(), b.Kind.SpacingFactor()
	if fb > fa {
		fa = fb
	}
	return r.cfg.MinNodeSpacing * fa
}

// pushEdgeClearance pushes items perpendicular away from edge segments that
// run closer than the configured buffer. Endpoints and frames are exempt:
// an edge may naturally cross its own endpoints' boxes, and boundary edges
// legitimately cross frame borders.
func (r *run) pushEdgeClearance(items []*flow.Node, disp map[string]*displacement) int {
	count := 0
	for _, e := range r.g.Edges() {
		src, okS := r.g.Node(e.Source)
		dst, okD := r.g.Node(e.Target)
		if !okS || !okD {
			continue
		}
		p1 := geom.AnchorPoint(r.nodeBounds(src.ID), e.SourceHandle)
		p2 := geom.AnchorPoint(r.nodeBounds(dst.ID), e.TargetHandle)

		for _, n := range items {
			if n.ID == e.Source || n.ID == e.Target || n.IsFrame() {
				continue
			}
			b := r.nodeBounds(n.ID)
			dist := geom.DistanceSegmentToRect(p1, p2, b)
			if dist >= r.cfg.EdgeBuffer {
				continue
			}
			count++
			away := geom.PerpendicularAway(p1, p2, b.Center())
			addPush(disp, n.ID, away.Scale(r.cfg.EdgeBuffer-dist), severityEdge)
		}
	}
	return count
}

// pushFrameExclusion pushes non-member items out of every frame's exclusion
// zone (the frame box inflated by the frame buffer).
func (r *run) pushFrameExclusion(items []*flow.Node, disp map[string]*displacement) int {
	count := 0
	for _, frameID := range r.frames.frames() {
		zone := r.nodeBounds(frameID).Inset(-r.cfg.FrameBuffer)
		for _, n := range items {
			if n.ID == frameID {
				continue
			}
			b := r.nodeBounds(n.ID)
			if !b.Overlaps(zone) {
				continue
			}
			count++

			inter, _ := b.Intersection(zone)
			dir := b.Center().Sub(zone.Center())
			var push geom.Point
			if inter.W <= inter.H {
				push = geom.Point{X: inter.W}
				if dir.X < 0 {
					push.X = -push.X
				}
			} else {
				push = geom.Point{Y: inter.H}
				if dir.Y < 0 {
					push.Y = -push.Y
				}
			}
			addPush(disp, n.ID, push, severityFrame)
		}
	}
	return count
}

func addPush(disp map[string]*displacement, id string, push geom.Point, severity float64) {
	d, ok := disp[id]
	if !ok {
		d = &displacement{}
		disp[id] = d
	}
	d.sum = d.sum.Add(push.Scale(severity))
	d.weight += severity
}

// clampFrameMembers forces every frame member back inside its frame's
// padded interior. Membership is frozen, so a member that drifted out is
// always pulled back rather than reassigned.
func (r *run) clampFrameMembers() {
	for _, frameID := range r.frames.frames() {
		interior := r.nodeBounds(frameID).Inset(r.cfg.FramePadding)
		for _, id := range r.frames.contentsOf(frameID) {
			n, ok := r.g.Node(id)
			if !ok || !r.movable(n) {
				continue
			}
			p := n.Position
			if p.X < interior.X {
				p.X = interior.X
			}
			if p.Y < interior.Y {
				p.Y = interior.Y
			}
			if max := interior.MaxX() - n.Width; p.X > max && max >= interior.X {
				p.X = max
			}
			if max := interior.MaxY() - n.Height; p.Y > max && max >= interior.Y {
				p.Y = max
			}
			if p != n.Position {
				r.setPos(n, p)
			}
		}
	}
}

// enforceSpacing is the post-loop deterministic sweep: any pair still
// violating minimum spacing is separated with a direct move instead of an
// accumulated push. Returns the number of pairs that could not be separated
// because neither side is movable.
func (r *run) enforceSpacing(items []*flow.Node) int {
	residual := 0
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			gap := r.requiredGap(a, b)
			ra := r.nodeBounds(a.ID).Inset(-gap / 2)
			rb := r.nodeBounds(b.ID).Inset(-gap / 2)
			if !ra.Overlaps(rb) {
				continue
			}

			inter, _ := ra.Intersection(rb)
			dir := b.Center().Sub(a.Center())
			var push geom.Point
			if inter.W <= inter.H {
				push = geom.Point{X: inter.W}
				if dir.X < 0 {
					push.X = -push.X
				}
			} else {
				push = geom.Point{Y: inter.H}
				if dir.Y < 0 {
					push.Y = -push.Y
				}
			}

			switch {
			case r.movable(b):
				r.translate(b, push)
			case r.movable(a):
				r.translate(a, push.Scale(-1))
			default:
				residual++
			}
		}
	}
	return residual
}

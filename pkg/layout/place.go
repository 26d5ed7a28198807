package layout

import (
	"slices"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/flow/analyze"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

// place performs hierarchical initial placement: frame interiors first via
// nested sub-layouts, then all top-level items (free nodes plus frames) on a
// level grid with parent-barycenter ordering inside each level.
func (r *run) place() {
	// Lay out every frame's interior in local coordinates and pre-size the
	// frame to its content extent. The finishing pass re-tightens sizes
	// after collision resolution.
	interiors := make(map[string]map[string]geom.Point)
	for _, frameID := range r.frames.frames() {
		frame, ok := r.g.Node(frameID)
		if !ok {
			continue
		}
		local, extent := r.placeFrameInterior(frameID)
		interiors[frameID] = local
		w := extent.X + 2*r.cfg.FramePadding
		h := extent.Y + 2*r.cfg.FramePadding
		if w < frame.Width {
			w = frame.Width
		}
		if h < frame.Height {
			h = frame.Height
		}
		r.setSize(frame, w, h)
	}

	r.placeTopLevel()

	// Translate frame interiors into their frame's coordinate space.
	for frameID, local := range interiors {
		frame, ok := r.g.Node(frameID)
		if !ok {
			continue
		}
		origin := frame.Position.Add(geom.Point{X: r.cfg.FramePadding, Y: r.cfg.FramePadding})
		for id, p := range local {
			if n, ok := r.g.Node(id); ok && r.movable(n) {
				r.setPos(n, origin.Add(p))
			}
		}
	}
}

// placeFrameInterior runs a smaller level-based placement restricted to the
// frame's frozen members and the edges with both endpoints inside the
// frame. Cross-boundary edges are ignored here; handle assignment and
// collision resolution deal with them later. Returns member positions in
// frame-local coordinates and the content extent.
func (r *run) placeFrameInterior(frameID string) (map[string]geom.Point, geom.Point) {
	members := r.frames.contentsOf(frameID)
	if len(members) == 0 {
		return nil, geom.Point{}
	}
	inFrame := make(map[string]bool, len(members))
	for _, id := range members {
		inFrame[id] = true
	}

	sub := flow.New()
	for _, id := range members {
		if n, ok := r.g.Node(id); ok {
			sub.AddNode(*n)
		}
	}
	for _, e := range r.g.Edges() {
		if inFrame[e.Source] && inFrame[e.Target] {
			sub.AddEdge(e)
		}
	}

	an := analyze.Analyze(sub)
	rows := buildRows(sub.Nodes(), func(n *flow.Node) int { return an.Levels[n.ID] })

	positions := make(map[string]geom.Point, len(members))
	var extent geom.Point
	// Interior rank spacing is tighter than the top-level grid.
	rank := r.cfg.RankSpacing * 0.6

	for rowIdx, row := range rows {
		r.orderRow(row.nodes, an, positions)
		x := 0.0
		for _, n := range row.nodes {
			y := float64(rowIdx) * rank
			positions[n.ID] = geom.Point{X: x, Y: y}
			if right := x + n.Width; right > extent.X {
				extent.X = right
			}
			if bottom := y + n.Height; bottom > extent.Y {
				extent.Y = bottom
			}
			x += n.Width + r.cfg.OptimalNodeSpacing*n.Kind.SpacingFactor()
		}
	}
	return positions, extent
}

// placeTopLevel arranges free nodes and frames on the level grid.
func (r *run) placeTopLevel() {
	var items []*flow.Node
	for _, n := range r.g.Nodes() {
		if r.frames.ownerOf(n.ID) != "" {
			continue // placed by the frame interior pass
		}
		items = append(items, n)
	}

	rows := buildRows(items, r.itemLevel)
	placedX := make(map[string]geom.Point)

	for rowIdx, row := range rows {
		r.orderRow(row.nodes, r.an, placedX)

		// Compact left-to-right packing, then center the whole level on the
		// barycenter of its already-placed parents to shorten edges.
		total := 0.0
		for i, n := range row.nodes {
			if i > 0 {
				total += r.cfg.OptimalNodeSpacing * n.Kind.SpacingFactor()
			}
			total += n.Width
		}
		offset := r.rowBarycenter(row.nodes, placedX) - total/2

		x := offset
		y := float64(rowIdx) * r.cfg.RankSpacing
		for _, n := range row.nodes {
			if r.movable(n) {
				r.translateTo(n, geom.Point{X: x, Y: y})
			}
			placedX[n.ID] = r.nodeBounds(n.ID).Center()
			x += n.Width + r.cfg.OptimalNodeSpacing*n.Kind.SpacingFactor()
		}
	}
}

// translateTo moves an item to an absolute position, dragging frame
// contents along.
func (r *run) translateTo(n *flow.Node, p geom.Point) {
	r.translate(n, p.Sub(n.Position))
}

// itemLevel returns the level of a top-level item. Frames without edges of
// their own inherit the shallowest level among their members so a frame
// sits roughly where its content belongs in the flow.
func (r *run) itemLevel(n *flow.Node) int {
	if !n.IsFrame() || r.g.InDegree(n.ID) > 0 || r.g.OutDegree(n.ID) > 0 {
		return r.an.Levels[n.ID]
	}
	level := -1
	for _, id := range r.frames.contentsOf(n.ID) {
		if l := r.an.Levels[id]; level == -1 || l < level {
			level = l
		}
	}
	if level < 0 {
		return 0
	}
	return level
}

type row struct {
	level int
	nodes []*flow.Node
}

// buildRows groups nodes by level, returning rows sorted by level. Node
// order within a row preserves graph insertion order until orderRow runs.
func buildRows(nodes []*flow.Node, level func(*flow.Node) int) []row {
	byLevel := make(map[int][]*flow.Node)
	for _, n := range nodes {
		l := level(n)
		byLevel[l] = append(byLevel[l], n)
	}
	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	slices.Sort(levels)

	rows := make([]row, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, row{level: l, nodes: byLevel[l]})
	}
	return rows
}

// orderRow sorts a level's nodes by the barycenter (average x) of their
// already-placed parents. Spine nodes sort first among equals, which keeps
// the main flow path straight without attempting the NP-hard ordering
// problem exactly. The sort is stable, so unplaced ties keep insertion
// order and the result is deterministic.
func (r *run) orderRow(nodes []*flow.Node, an *analyze.Analysis, placed map[string]geom.Point) {
	type key struct {
		bary    float64
		hasBary bool
		spine   bool
	}
	keys := make(map[string]key, len(nodes))
	for _, n := range nodes {
		sum, count := 0.0, 0
		for _, p := range r.g.Predecessors(n.ID) {
			if c, ok := placed[p]; ok {
				sum += c.X
				count++
			}
		}
		k := key{spine: an.OnSpine(n.ID)}
		if count > 0 {
			k.bary = sum / float64(count)
			k.hasBary = true
		}
		keys[n.ID] = k
	}

	slices.SortStableFunc(nodes, func(a, b *flow.Node) int {
		ka, kb := keys[a.ID], keys[b.ID]
		switch {
		case ka.hasBary && kb.hasBary:
			if ka.bary < kb.bary {
				return -1
			}
			if ka.bary > kb.bary {
				return 1
			}
		case ka.hasBary:
			return -1
		case kb.hasBary:
			return 1
		}
		if ka.spine != kb.spine {
			if ka.spine {
				return -1
			}
			return 1
		}
		return 0
	})
}

// rowBarycenter returns the average center x of the placed parents of all
// nodes in the row, or 0 when nothing upstream is placed yet.
func (r *run) rowBarycenter(nodes []*flow.Node, placed map[string]geom.Point) float64 {
	sum, count := 0.0, 0
	for _, n := range nodes {
		for _, p := range r.g.Predecessors(n.ID) {
			if c, ok := placed[p]; ok {
				sum += c.X
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

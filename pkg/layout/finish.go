package layout

import (
	"math"

	"github.com/flowgridhq/flowgrid/pkg/geom"
)

// finish runs the finalization pass: tighten every frame around its
// content, center the arrangement on the origin, and snap all coordinates
// to the grid.
func (r *run) finish() {
	r.autosizeFrames()
	r.centerOnOrigin()
	r.snapToGrid()
}

// autosizeFrames shrinks or grows each frame to its content bounding box
// plus the configured padding on every side. Frames with no members keep
// their current size. A pinned frame keeps its position; only its size
// changes, and members are clamped instead.
func (r *run) autosizeFrames() {
	for _, frameID := range r.frames.frames() {
		frame, ok := r.g.Node(frameID)
		if !ok {
			continue
		}
		members := r.frames.contentsOf(frameID)
		if len(members) == 0 {
			continue
		}

		var content geom.Rect
		first := true
		for _, id := range members {
			if _, ok := r.g.Node(id); !ok {
				continue
			}
			if first {
				content = r.nodeBounds(id)
				first = false
				continue
			}
			content = content.Union(r.nodeBounds(id))
		}
		if first {
			continue
		}

		fitted := content.Inset(-r.cfg.FramePadding)
		if r.movable(frame) {
			r.setPos(frame, geom.Point{X: fitted.X, Y: fitted.Y})
			r.setSize(frame, fitted.W, fitted.H)
		} else {
			// Pinned frame: grow in place if the content no longer fits.
			w, h := frame.Width, frame.Height
			if fitted.W > w {
				w = fitted.W
			}
			if fitted.H > h {
				h = fitted.H
			}
			r.setSize(frame, w, h)
		}
	}
	r.clampFrameMembers()
}

// centerOnOrigin translates the whole arrangement so its bounding box is
// centered on (0,0). Skipped when any node is pinned, because a uniform
// shift would move pinned nodes too.
func (r *run) centerOnOrigin() {
	if r.cfg.RespectPinned {
		for _, n := range r.g.Nodes() {
			if n.Pinned {
				return
			}
		}
	}

	bounds := r.arrangementBounds()
	if bounds.Area() == 0 && bounds.W == 0 && bounds.H == 0 {
		return
	}
	shift := bounds.Center().Scale(-1)
	for _, n := range r.g.Nodes() {
		r.setPos(n, n.Position.Add(shift))
	}
}

// snapToGrid rounds every node position to the nearest grid multiple.
// Sizes are left alone; snapping a frame's size could cut into its
// padding. Pinned nodes keep their exact input coordinates.
func (r *run) snapToGrid() {
	grid := r.cfg.GridSize
	if grid <= 0 {
		return
	}
	for _, n := range r.g.Nodes() {
		if !r.movable(n) {
			continue
		}
		r.setPos(n, geom.Point{
			X: math.Round(n.Position.X/grid) * grid,
			Y: math.Round(n.Position.Y/grid) * grid,
		})
	}
}

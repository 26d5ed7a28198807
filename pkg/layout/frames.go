package layout

import (
	"slices"

	"github.com/flowgridhq/flowgrid/pkg/flow"
)

// containmentRatio is the fraction of a node's own area that must overlap a
// frame's box for the node to count as frame content on first encounter.
const containmentRatio = 0.8

// frameRegistry owns the frozen frame membership for one run. Membership is
// decided exactly once — from persisted content lists when present,
// otherwise from bounding-box overlap — and never drifts afterward, no
// matter how far the collision solver moves things.
type frameRegistry struct {
	owner    map[string]string   // member node ID -> frame ID
	contents map[string][]string // frame ID -> member IDs, sorted
	frameIDs []string            // frames in insertion order
}

// newFrameRegistry computes and freezes membership for every frame in g.
//
// A frame pre-annotated with a persisted content list (from a prior run) has
// that list filtered to currently existing node IDs and trusted as-is; this
// is what makes repeat runs group identically. Frames without annotations
// claim the nodes whose boxes overlap the frame's box by at least 80% of the
// node's own area. A node can belong to at most one frame; the earliest
// frame in insertion order wins conflicts.
func newFrameRegistry(g *flow.Graph, diags *flow.Diagnostics) *frameRegistry {
	fr := &frameRegistry{
		owner:    make(map[string]string),
		contents: make(map[string][]string),
	}

	for _, frame := range g.Frames() {
		fr.frameIDs = append(fr.frameIDs, frame.ID)
		var members []string

		if len(frame.Contents) > 0 {
			for _, id := range frame.Contents {
				n, ok := g.Node(id)
				if !ok || n.IsFrame() {
					continue
				}
				if _, taken := fr.owner[id]; taken {
					continue
				}
				members = append(members, id)
			}
		} else {
			fb := frame.Bounds()
			for _, n := range g.Nodes() {
				if n.IsFrame() || n.ID == frame.ID {
					continue
				}
				if _, taken := fr.owner[n.ID]; taken {
					continue
				}
				if n.Bounds().OverlapRatio(fb) >= containmentRatio {
					members = append(members, n.ID)
				}
			}
		}

		slices.Sort(members)
		for _, id := range members {
			fr.owner[id] = frame.ID
		}
		fr.contents[frame.ID] = members

		// Write the frozen set back onto the frame node so callers can
		// persist it for idempotent re-layout.
		frame.Contents = slices.Clone(members)
	}

	return fr
}

// ownerOf returns the frame owning the node, or "" when the node is free.
func (fr *frameRegistry) ownerOf(nodeID string) string { return fr.owner[nodeID] }

// contentsOf returns the frozen member IDs of the frame, sorted.
func (fr *frameRegistry) contentsOf(frameID string) []string { return fr.contents[frameID] }

// frames returns the frame IDs in graph insertion order.
func (fr *frameRegistry) frames() []string { return fr.frameIDs }

// snapshot returns a deep copy of the content map for the result.
func (fr *frameRegistry) snapshot() map[string][]string {
	out := make(map[string][]string, len(fr.contents))
	for id, members := range fr.contents {
		out[id] = slices.Clone(members)
	}
	return out
}

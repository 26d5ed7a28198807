// Package layout implements the automatic diagram layout engine: given a
// diagram graph of typed nodes and directed edges, it computes
// non-overlapping positions for every node, assigns a connection anchor to
// each edge endpoint, and converges on a quality-scored arrangement free of
// node and edge collisions, honoring container (frame) membership.
//
// # Phases
//
// A run executes a fixed phase sequence, each phase consuming the previous
// phase's node and edge set:
//
//  1. Structural analysis (levels, cycles, spine) via pkg/flow/analyze
//  2. Frame registry: freeze each frame's original content set
//  3. Hierarchy and initial placement, with nested per-frame sub-layouts
//  4. Handle assignment under the strict in/out separation invariant
//  5. Collision detection and resolution (bounded fixed-point loop)
//  6. Quality scoring and conditional refinement
//  7. Finishing: frame autosizing, origin centering, grid snapping
//
// Nothing is shared between runs: all derived state lives on the run value
// created by [Compute] and is discarded when it returns. The engine is
// synchronous and single-threaded; a full run is a deterministic function of
// (graph, config).
//
// # Error model
//
// Only invalid input (an empty node set, duplicate IDs) fails a run. Every
// degradation inside the engine — an exhausted anchor, a collision loop that
// hits its iteration cap — is recorded as a diagnostic on the [Result] and
// the run proceeds with its best effort: a visually imperfect but renderable
// layout is always preferred to no layout.
package layout

package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/flow/analyze"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

// Result is the output of a layout run. Graph is a laid-out clone of the
// input: same IDs, updated positions and frame sizes, populated handles.
type Result struct {
	Graph    *flow.Graph
	Analysis *analyze.Analysis

	// Diagnostics lists every soft violation the run degraded through.
	Diagnostics flow.Diagnostics

	// Score is the quality assessment of the final arrangement.
	Score Score

	// Iterations is the number of collision resolution rounds executed.
	Iterations int

	// Converged reports whether the collision loop reached zero collisions
	// before the iteration cap.
	Converged bool

	// FrameContents holds each frame's frozen member set. Callers may
	// persist it and feed it back (via Node.Contents) to guarantee
	// identical grouping on repeat runs.
	FrameContents map[string][]string
}

// run carries all per-run state through the phases. It is created by
// Compute and discarded when Compute returns; nothing here outlives a run.
type run struct {
	g      *flow.Graph
	cfg    Config
	log    *log.Logger
	an     *analyze.Analysis
	frames *frameRegistry
	diags  flow.Diagnostics

	// bounds caches every node's bounding box. Phases that move nodes go
	// through setPos/setSize so the cache never goes stale.
	bounds map[string]geom.Rect

	rng *lcg
}

// Compute lays out g and returns the result. The input graph is cloned and
// never mutated. The only failure modes are caller-level precondition
// violations reported by [flow.Graph.Validate]; everything else degrades
// into diagnostics on the result.
//
// Passing a nil logger discards engine logs.
func Compute(g *flow.Graph, cfg Config, logger *log.Logger) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	cfg = cfg.normalize()

	r := &run{
		g:      g.Clone(),
		cfg:    cfg,
		log:    logger,
		bounds: make(map[string]geom.Rect),
		rng:    newLCG(lcgSeed),
	}
	r.refreshBounds()

	r.log.Debug("layout start", "nodes", r.g.NodeCount(), "edges", r.g.EdgeCount())

	r.an = analyze.Analyze(r.g)
	r.log.Debug("analysis",
		"depth", r.an.Depth, "width", r.an.Width,
		"cycles", r.an.HasCycles, "components", r.an.Components)

	r.frames = newFrameRegistry(r.g, &r.diags)

	if cfg.ForceDirected {
		r.forcePlace()
	} else {
		r.place()
	}

	r.assignHandles()

	iterations, converged := 0, true
	if cfg.AvoidOverlaps {
		iterations, converged = r.resolveCollisions()
	}

	score := r.score()
	if score.Total < refineThreshold {
		r.refine(score)
		score = r.score()
	}

	r.finish()

	res := &Result{
		Graph:         r.g,
		Analysis:      r.an,
		Diagnostics:   r.diags,
		Score:         score,
		Iterations:    iterations,
		Converged:     converged,
		FrameContents: r.frames.snapshot(),
	}
	r.log.Debug("layout done",
		"score", score.Total, "iterations", iterations,
		"converged", converged, "diagnostics", len(r.diags))
	return res, nil
}

// refreshBounds rebuilds the bounds cache from live node state.
func (r *run) refreshBounds() {
	for _, n := range r.g.Nodes() {
		r.bounds[n.ID] = n.Bounds()
	}
}

// nodeBounds returns the cached bounding box for the node.
func (r *run) nodeBounds(id string) geom.Rect { return r.bounds[id] }

// setPos moves a node and updates the bounds cache.
func (r *run) setPos(n *flow.Node, p geom.Point) {
	n.Position = p
	r.bounds[n.ID] = n.Bounds()
}

// setSize resizes a node and updates the bounds cache.
func (r *run) setSize(n *flow.Node, w, h float64) {
	n.Width, n.Height = w, h
	r.bounds[n.ID] = n.Bounds()
}

// movable reports whether the engine may displace the node. Pinned nodes
// are immovable when the config respects pinning.
func (r *run) movable(n *flow.Node) bool {
	return !(r.cfg.RespectPinned && n.Pinned)
}

// translate shifts a node by v. Frames drag their frozen content set along
// so a frame always moves as a unit.
func (r *run) translate(n *flow.Node, v geom.Point) {
	r.setPos(n, n.Position.Add(v))
	if n.IsFrame() {
		for _, id := range r.frames.contentsOf(n.ID) {
			if m, ok := r.g.Node(id); ok {
				r.setPos(m, m.Position.Add(v))
			}
		}
	}
}

package layout

import (
	"math"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/geom"
)

// lcgSeed is the fixed seed for the run-local generator. Seeding identically
// every run keeps the force-directed fallback reproducible: identical input
// always yields bit-identical output positions.
const lcgSeed uint64 = 0x5DEECE66D

// lcg is a linear-congruential generator (Knuth MMIX constants). The engine
// deliberately avoids math/rand so the stream is pinned to these exact
// constants regardless of Go version.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg { return &lcg{state: seed} }

// next returns the next raw 64-bit value.
func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

// float64 returns a value in [0,1).
func (l *lcg) float64() float64 {
	return float64(l.next()>>11) / float64(1<<53)
}

// forcePlace is the optional force-directed fallback: nodes start on a
// seeded ring and relax under spring forces along edges plus pairwise
// repulsion. Used instead of hierarchical placement when the config asks
// for it; frame interiors still get their nested hierarchical pass.
func (r *run) forcePlace() {
	var free []*nodeSim
	for _, n := range r.g.Nodes() {
		if r.frames.ownerOf(n.ID) != "" || !r.movable(n) {
			continue
		}
		free = append(free, &nodeSim{node: n})
	}
	if len(free) == 0 {
		r.place()
		return
	}

	// Seeded ring start keeps the relaxation deterministic.
	radius := r.cfg.OptimalNodeSpacing * float64(len(free)) / (2 * math.Pi)
	if radius < r.cfg.OptimalNodeSpacing {
		radius = r.cfg.OptimalNodeSpacing
	}
	for i, s := range free {
		angle := 2*math.Pi*float64(i)/float64(len(free)) + r.rng.float64()*0.1
		s.pos = geom.Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	}

	index := make(map[string]*nodeSim, len(free))
	for _, s := range free {
		index[s.node.ID] = s
	}

	const rounds = 60
	spring := r.cfg.OptimalNodeSpacing * 2
	for round := 0; round < rounds; round++ {
		cool := 1 - float64(round)/rounds

		// Repulsion between every movable pair.
		for i := 0; i < len(free); i++ {
			for j := i + 1; j < len(free); j++ {
				a, b := free[i], free[j]
				d := b.pos.Sub(a.pos)
				dist := d.Len()
				if dist < 1 {
					dist = 1
				}
				push := d.Normalize().Scale(spring * spring / dist / dist * 8)
				a.vel = a.vel.Sub(push)
				b.vel = b.vel.Add(push)
			}
		}

		// Spring attraction along edges.
		for _, e := range r.g.Edges() {
			a, okA := index[e.Source]
			b, okB := index[e.Target]
			if !okA || !okB {
				continue
			}
			d := b.pos.Sub(a.pos)
			stretch := (d.Len() - spring) / spring
			pull := d.Normalize().Scale(stretch * 10)
			a.vel = a.vel.Add(pull)
			b.vel = b.vel.Sub(pull)
		}

		for _, s := range free {
			step := s.vel.Scale(0.1 * cool)
			if l := step.Len(); l > spring {
				step = step.Normalize().Scale(spring)
			}
			s.pos = s.pos.Add(step)
			s.vel = geom.Point{}
		}
	}

	for _, s := range free {
		r.setPos(s.node, s.pos)
	}

	// Frames still lay out their interiors hierarchically.
	for _, frameID := range r.frames.frames() {
		frame, ok := r.g.Node(frameID)
		if !ok {
			continue
		}
		local, extent := r.placeFrameInterior(frameID)
		r.setSize(frame, extent.X+2*r.cfg.FramePadding, extent.Y+2*r.cfg.FramePadding)
		origin := frame.Position.Add(geom.Point{X: r.cfg.FramePadding, Y: r.cfg.FramePadding})
		for id, p := range local {
			if n, ok := r.g.Node(id); ok && r.movable(n) {
				r.setPos(n, origin.Add(p))
			}
		}
	}
}

type nodeSim struct {
	node *flow.Node
	pos  geom.Point
	vel  geom.Point
}

package layout

// Config tunes a layout run. The zero value is not usable; start from
// [DefaultConfig] and override fields. All distances are in diagram units.
type Config struct {
	// MinNodeSpacing is the smallest gap the collision solver tolerates
	// between two node bounding boxes, scaled per kind.
	MinNodeSpacing float64 `toml:"min_node_spacing" json:"min_node_spacing"`

	// OptimalNodeSpacing is the horizontal gap initial placement aims for
	// between siblings within a level.
	OptimalNodeSpacing float64 `toml:"optimal_node_spacing" json:"optimal_node_spacing"`

	// RankSpacing is the vertical distance between consecutive levels.
	RankSpacing float64 `toml:"rank_spacing" json:"rank_spacing"`

	// Compactness in [0,1] biases the refiner: higher values pull the
	// layout harder toward its centroid when the score drops.
	Compactness float64 `toml:"compactness" json:"compactness"`

	// RespectPinned keeps pinned nodes at their input position through
	// every phase.
	RespectPinned bool `toml:"respect_pinned" json:"respect_pinned"`

	// AvoidOverlaps enables the collision resolution loop. Disabling it
	// yields the raw hierarchical placement.
	AvoidOverlaps bool `toml:"avoid_overlaps" json:"avoid_overlaps"`

	// EdgeBuffer is the clearance kept between routed edge segments and
	// unrelated node boxes.
	EdgeBuffer float64 `toml:"edge_buffer" json:"edge_buffer"`

	// MaxIterations caps the collision resolution fixed-point loop.
	MaxIterations int `toml:"max_iterations" json:"max_iterations"`

	// FramePadding is the minimum inset between a frame's boundary and its
	// member nodes. Frames are auto-sized to content plus this padding.
	FramePadding float64 `toml:"frame_padding" json:"frame_padding"`

	// FrameBuffer is the exclusion zone around frames that non-member
	// nodes must stay out of.
	FrameBuffer float64 `toml:"frame_buffer" json:"frame_buffer"`

	// GridSize is the grid all final coordinates snap to. Zero disables
	// snapping.
	GridSize float64 `toml:"grid_size" json:"grid_size"`

	// ForceDirected switches initial placement to the seeded force-directed
	// fallback instead of hierarchical levels. Mainly useful for dense
	// graphs with no meaningful flow direction.
	ForceDirected bool `toml:"force_directed" json:"force_directed"`
}

// DefaultConfig returns the engine defaults. These are the single source of
// truth; the CLI, HTTP API, and pipeline all start from here.
func DefaultConfig() Config {
	return Config{
		MinNodeSpacing:     40,
		OptimalNodeSpacing: 80,
		RankSpacing:        160,
		Compactness:        0.5,
		RespectPinned:      true,
		AvoidOverlaps:      true,
		EdgeBuffer:         12,
		MaxIterations:      12,
		FramePadding:       60,
		FrameBuffer:        40,
		GridSize:           10,
	}
}

// normalize clamps config values into their working ranges so a partially
// filled config can't wedge the solver.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.MinNodeSpacing <= 0 {
		c.MinNodeSpacing = d.MinNodeSpacing
	}
	if c.OptimalNodeSpacing <= 0 {
		c.OptimalNodeSpacing = d.OptimalNodeSpacing
	}
	if c.RankSpacing <= 0 {
		c.RankSpacing = d.RankSpacing
	}
	if c.Compactness < 0 {
		c.Compactness = 0
	}
	if c.Compactness > 1 {
		c.Compactness = 1
	}
	if c.EdgeBuffer <= 0 {
		c.EdgeBuffer = d.EdgeBuffer
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxIterations > 15 {
		c.MaxIterations = 15
	}
	if c.FramePadding <= 0 {
		c.FramePadding = d.FramePadding
	}
	if c.FrameBuffer <= 0 {
		c.FrameBuffer = d.FrameBuffer
	}
	if c.GridSize < 0 {
		c.GridSize = 0
	}
	return c
}

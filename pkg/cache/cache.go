// Package cache provides caching for layout computation and rendering.
//
// The package defines a backend-agnostic [Cache] interface with three
// implementations:
//   - FileCache: file-based cache for CLI usage
//   - RedisCache: Redis-backed cache for multi-instance server deployments
//   - NullCache: no-op cache for tests and --no-cache runs
//
// Cache keys are produced by a [Keyer] so every entry point (CLI, API)
// derives identical keys for identical inputs. Layout results are keyed by
// the content hash of the input graph plus the layout configuration, so a
// changed graph or a changed config never serves a stale layout.
package cache

import (
	"context"
	"time"
)

// TTLs for the different entry classes. Graphs are user input and change
// often; layouts and artifacts are derived and keyed by content hash, so
// they can live longer.
const (
	TTLGraph    = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the configuration fields that affect a layout result.
// Any field change must produce a different cache key.
type LayoutKeyOpts struct {
	MinNodeSpacing     float64
	OptimalNodeSpacing float64
	RankSpacing        float64
	Compactness        float64
	RespectPinned      bool
	AvoidOverlaps      bool
	EdgeBuffer         float64
	MaxIterations      int
	FramePadding       float64
	FrameBuffer        float64
	GridSize           float64
	ForceDirected      bool
}

// ArtifactKeyOpts are the rendering options that affect an artifact.
type ArtifactKeyOpts struct {
	Format     string
	EdgeLabels bool
	Detailed   bool
	Scale      float64
}

// Keyer generates cache keys. Implementations must be deterministic.
type Keyer interface {
	// GraphKey generates a key for a stored diagram graph.
	GraphKey(diagramID string) string

	// LayoutKey generates a key for a layout result.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme shared by CLI and API.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for a stored diagram graph.
func (k *DefaultKeyer) GraphKey(diagramID string) string {
	return hashKey("graph", diagramID)
}

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Package pipeline provides the core layout pipeline for Flowgrid.
//
// This package implements the complete load → layout → render pipeline that
// can be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a diagram document from a file or take one inline
//  2. Layout: Run the layout engine over the diagram graph
//  3. Render: Generate output in various formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:   "checkout.json",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Load only
//	g, diags, err := runner.Load(ctx, opts)
//
//	// Layout with existing graph
//	res, err := runner.ComputeLayout(ctx, g, opts)
//
//	// Render with existing layout
//	artifacts, err := runner.Render(ctx, res.Graph, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowgridhq/flowgrid/pkg/cache"
	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/layout"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// DefaultPNGScale is the default PNG resolution multiplier.
const DefaultPNGScale = 2.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of Input or Document must be set.
	Input    string         `json:"input,omitempty"`
	Document *flow.Document `json:"document,omitempty"`

	// DiagramID names the diagram for cache keys and store operations.
	// Optional; when empty the graph content hash is the only identity.
	DiagramID string `json:"diagram_id,omitempty"`

	// Refresh bypasses the layout and artifact caches.
	Refresh bool `json:"refresh,omitempty"`

	// Layout options. The zero value means engine defaults.
	Layout layout.Config `json:"layout,omitempty"`

	// ConfigFile is a TOML file merged over the layout defaults before
	// Layout overrides apply. CLI flag > file > defaults.
	ConfigFile string `json:"config_file,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	EdgeLabels bool     `json:"edge_labels,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"` // DOT: include kind and pinned state
	PNGScale   float64  `json:"png_scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the laid-out diagram graph.
	Graph *flow.Graph

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Layout is the full layout result (score, diagnostics, analysis,
	// frame contents).
	Layout *layout.Result

	// Diagnostics merges load-time and layout-time diagnostics.
	Diagnostics flow.Diagnostics

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.resolveLayoutConfig(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for the load stage.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" && o.Document == nil {
		return errors.New(errors.ErrCodeInvalidInput, "input file or inline document is required")
	}
	if o.Input != "" && o.Document != nil {
		return errors.New(errors.ErrCodeInvalidInput, "input file and inline document are mutually exclusive")
	}
	if o.Input != "" {
		if err := errors.ValidatePath(o.Input); err != nil {
			return err
		}
	}
	if o.DiagramID != "" {
		if err := errors.ValidateDiagramID(o.DiagramID); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// resolveLayoutConfig applies the config file when no explicit Layout was
// given. Precedence: Layout field > config file > engine defaults. An
// explicitly set Layout wins wholesale; partial merging of booleans cannot
// distinguish "false" from "unset".
func (o *Options) resolveLayoutConfig() error {
	if o.ConfigFile == "" || o.Layout != (layout.Config{}) {
		return nil
	}
	fileCfg, err := LoadLayoutConfig(o.ConfigFile)
	if err != nil {
		return err
	}
	o.Layout = fileCfg
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale <= 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	c := o.Layout
	return cache.LayoutKeyOpts{
		MinNodeSpacing:     c.MinNodeSpacing,
		OptimalNodeSpacing: c.OptimalNodeSpacing,
		RankSpacing:        c.RankSpacing,
		Compactness:        c.Compactness,
		RespectPinned:      c.RespectPinned,
		AvoidOverlaps:      c.AvoidOverlaps,
		EdgeBuffer:         c.EdgeBuffer,
		MaxIterations:      c.MaxIterations,
		FramePadding:       c.FramePadding,
		FrameBuffer:        c.FrameBuffer,
		GridSize:           c.GridSize,
		ForceDirected:      c.ForceDirected,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		EdgeLabels: o.EdgeLabels,
		Detailed:   o.Detailed,
		Scale:      o.PNGScale,
	}
}

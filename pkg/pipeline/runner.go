package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowgridhq/flowgrid/pkg/cache"
	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/flow/analyze"
	"github.com/flowgridhq/flowgrid/pkg/layout"
	"github.com/flowgridhq/flowgrid/pkg/observability"
	"github.com/flowgridhq/flowgrid/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	g, loadDiags, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Diagnostics = append(result.Diagnostics, loadDiags...)

	if data, err := flow.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("loaded diagram",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	lres, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = lres
	result.Graph = lres.Graph
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	result.Diagnostics = append(result.Diagnostics, lres.Diagnostics...)

	r.Logger.Info("computed layout",
		"score", lres.Score.Total,
		"iterations", lres.Iterations,
		"converged", lres.Converged,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, lres.Graph, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the diagram graph from the configured source. File loads and
// inline documents go through the same lenient ingestion rules.
func (r *Runner) Load(ctx context.Context, opts Options) (*flow.Graph, flow.Diagnostics, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, nil, err
	}

	source := opts.Input
	if source == "" {
		source = "inline"
	}
	observability.Pipeline().OnLoadStart(ctx, source)
	start := time.Now()

	var (
		g     *flow.Graph
		diags flow.Diagnostics
		err   error
	)
	if opts.Document != nil {
		g, diags, err = flow.FromDocument(*opts.Document)
	} else {
		g, diags, err = flow.ReadGraphFile(opts.Input)
	}
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, source, 0, 0, time.Since(start), err)
		return nil, diags, errors.Wrap(errors.ErrCodeInvalidGraph, err, "load diagram")
	}

	observability.Pipeline().OnLoadComplete(ctx, source, g.NodeCount(), g.EdgeCount(), time.Since(start), nil)
	return g, diags, nil
}

// layoutEnvelope is the cached serialization of a layout result. Analysis is
// cheap to recompute, so only the arrangement itself is stored.
type layoutEnvelope struct {
	Document      flow.Document       `json:"document"`
	Score         layout.Score        `json:"score"`
	Diagnostics   flow.Diagnostics    `json:"diagnostics,omitempty"`
	Iterations    int                 `json:"iterations"`
	Converged     bool                `json:"converged"`
	FrameContents map[string][]string `json:"frame_contents,omitempty"`
}

// ComputeLayoutWithCacheInfo runs the layout engine with caching and returns
// cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *flow.Graph, opts Options) (*layout.Result, bool, error) {
	graphData, err := flow.MarshalGraph(g)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize graph for cache key")
	}
	graphHash := cache.Hash(graphData)
	cacheKey := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, err := decodeLayoutEnvelope(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return res, true, nil
			}
			// Corrupt entry, fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	observability.Pipeline().OnLayoutStart(ctx, g.NodeCount(), g.EdgeCount())
	start := time.Now()

	res, err := layout.Compute(g, opts.Layout, opts.Logger)
	observability.Pipeline().OnLayoutComplete(ctx, scoreOf(res), iterationsOf(res), time.Since(start), err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidGraph, err, "compute layout")
	}

	if data, err := encodeLayoutEnvelope(res); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout) == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return res, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g *flow.Graph, opts Options) (*layout.Result, error) {
	res, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	return res, err
}

func encodeLayoutEnvelope(res *layout.Result) ([]byte, error) {
	return json.Marshal(layoutEnvelope{
		Document:      flow.ToDocument(res.Graph),
		Score:         res.Score,
		Diagnostics:   res.Diagnostics,
		Iterations:    res.Iterations,
		Converged:     res.Converged,
		FrameContents: res.FrameContents,
	})
}

func decodeLayoutEnvelope(data []byte) (*layout.Result, error) {
	var env layoutEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	g, _, err := flow.FromDocument(env.Document)
	if err != nil {
		return nil, err
	}
	return &layout.Result{
		Graph:         g,
		Analysis:      analyze.Analyze(g),
		Diagnostics:   env.Diagnostics,
		Score:         env.Score,
		Iterations:    env.Iterations,
		Converged:     env.Converged,
		FrameContents: env.FrameContents,
	}, nil
}

func scoreOf(res *layout.Result) float64 {
	if res == nil {
		return 0
	}
	return res.Score.Total
}

func iterationsOf(res *layout.Result) int {
	if res == nil {
		return 0
	}
	return res.Iterations
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *flow.Graph, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	layoutData, err := flow.MarshalGraph(g)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		allCached := true
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	rendered, err := RenderFormats(g, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact) == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *flow.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// RenderFormats renders the laid-out graph into every requested format.
// SVG is rendered once and reused for raster conversions.
func RenderFormats(g *flow.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svgOpts []render.SVGOption
	if opts.EdgeLabels {
		svgOpts = append(svgOpts, render.WithEdgeLabels())
	}

	var svg []byte
	needSVG := func() []byte {
		if svg == nil {
			svg = render.RenderSVG(g, svgOpts...)
		}
		return svg
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			artifacts[format] = needSVG()
		case FormatPNG:
			png, err := render.ToPNG(needSVG(), opts.PNGScale)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "render png")
			}
			artifacts[format] = png
		case FormatPDF:
			pdf, err := render.ToPDF(needSVG())
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "render pdf")
			}
			artifacts[format] = pdf
		case FormatJSON:
			data, err := flow.MarshalGraph(g)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "render json")
			}
			artifacts[format] = data
		case FormatDOT:
			artifacts[format] = []byte(render.ToDOT(g, render.DOTOptions{Detailed: opts.Detailed}))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
		}
	}

	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

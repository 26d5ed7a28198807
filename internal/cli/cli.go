package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flowgridhq/flowgrid/pkg/buildinfo"
	"github.com/flowgridhq/flowgrid/pkg/cache"
	"github.com/flowgridhq/flowgrid/pkg/layout"
	"github.com/flowgridhq/flowgrid/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowgrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "flowgrid",
		Short:        "Flowgrid computes automatic layouts for flow diagrams",
		Long:         `Flowgrid is a CLI tool for laying out flow diagrams: it assigns positions, edge anchor points, and frame sizes to diagram documents so they render without overlaps.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.genCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowgrid/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Flags Helpers
// =============================================================================

// bindLayoutFlags registers the layout tuning flags on cmd, bound to cfg.
// Defaults come from the engine so --help shows the real values.
func bindLayoutFlags(cmd *cobra.Command, cfg *layout.Config) {
	*cfg = layout.DefaultConfig()
	f := cmd.Flags()
	f.Float64Var(&cfg.MinNodeSpacing, "min-spacing", cfg.MinNodeSpacing, "minimum gap between node boxes")
	f.Float64Var(&cfg.OptimalNodeSpacing, "spacing", cfg.OptimalNodeSpacing, "target gap between siblings")
	f.Float64Var(&cfg.RankSpacing, "rank-spacing", cfg.RankSpacing, "vertical distance between levels")
	f.Float64Var(&cfg.Compactness, "compactness", cfg.Compactness, "refiner centroid pull in [0,1]")
	f.BoolVar(&cfg.RespectPinned, "respect-pinned", cfg.RespectPinned, "keep pinned nodes in place")
	f.BoolVar(&cfg.AvoidOverlaps, "avoid-overlaps", cfg.AvoidOverlaps, "run collision resolution")
	f.Float64Var(&cfg.EdgeBuffer, "edge-buffer", cfg.EdgeBuffer, "clearance between edges and unrelated boxes")
	f.IntVar(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "collision resolution iteration cap")
	f.Float64Var(&cfg.FramePadding, "frame-padding", cfg.FramePadding, "inset between a frame and its members")
	f.Float64Var(&cfg.FrameBuffer, "frame-buffer", cfg.FrameBuffer, "exclusion zone around frames")
	f.Float64Var(&cfg.GridSize, "grid", cfg.GridSize, "grid to snap final positions to (0 disables)")
	f.BoolVar(&cfg.ForceDirected, "force-directed", cfg.ForceDirected, "use force-directed initial placement")
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowgridhq/flowgrid/pkg/pipeline"
)

// layoutCommand creates the layout command for computing diagram layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		formats    string
		configFile string
		noCache    bool
		refresh    bool
		edgeLabels bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Compute a layout for a diagram document",
		Long: `Compute a layout for a diagram document.

The layout command takes a diagram.json file (nodes and edges, positions
optional) and computes node positions, edge anchor assignments, and frame
sizes. The laid-out document is written back as JSON; additional artifacts
can be rendered with --format.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Formats = parseFormats(formats)
			opts.ConfigFile = configFile
			opts.Refresh = refresh
			opts.EdgeLabels = edgeLabels
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&formats, "format", "f", "json", "comma-separated output formats: json, svg, png, pdf, dot")
	cmd.Flags().StringVar(&configFile, "config", "", "TOML config file with a [layout] section")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVar(&edgeLabels, "edge-labels", false, "draw edge labels in SVG output")

	// Layout tuning flags
	bindLayoutFlags(cmd, &opts.Layout)

	return cmd
}

// runLayout executes the pipeline and writes the requested artifacts.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input)) + ".layout"
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	printSuccess("Layout complete")
	for _, format := range opts.Formats {
		path := base + "." + format
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}

	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printScore(result.Layout.Score.Total, result.Layout.Converged)
	for _, d := range result.Diagnostics {
		printWarning("%s", d)
	}
	printNewline()
	printNextStep("Inspect", "flowgrid inspect "+base+".json")

	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/render"
)

// previewCommand creates the preview command for quick Graphviz rendering.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		scale    float64
	)

	cmd := &cobra.Command{
		Use:   "preview [diagram.json]",
		Short: "Render a structural preview via Graphviz",
		Long: `Render a structural preview via Graphviz.

Unlike 'layout', preview ignores computed positions and lets Graphviz place
the nodes. Useful for a quick look at diagram structure before tuning the
layout engine. Frames render as clusters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], output, format, detailed, scale)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.preview.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, png, dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node kind and pinned state in labels")
	cmd.Flags().Float64Var(&scale, "scale", 2.0, "PNG scale factor")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input, output, format string, detailed bool, scale float64) error {
	g, diags, err := flow.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}
	for _, d := range diags {
		printWarning("%s", d)
	}

	dot := render.ToDOT(g, render.DOTOptions{Detailed: detailed})

	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg":
		data, err = render.GraphvizSVG(ctx, dot)
	case "png":
		data, err = render.GraphvizPNG(ctx, dot, scale)
	default:
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, dot)", format)
	}
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".preview." + format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Preview rendered")
	printFile(output)
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/flow/analyze"
)

// analyzeCommand creates the analyze command for inspecting diagram structure.
func (c *CLI) analyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [diagram.json]",
		Short: "Print the structural analysis of a diagram",
		Long: `Print the structural analysis of a diagram.

Shows flow direction, depth and width, cycle and back-edge detection,
connected components, and the detected primary path through the diagram.
This is the same analysis the layout engine runs before placement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(args[0])
		},
	}
}

func (c *CLI) runAnalyze(input string) error {
	g, diags, err := flow.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}

	an := analyze.Analyze(g)

	printKeyValue("Nodes", fmt.Sprintf("%d", g.NodeCount()))
	printKeyValue("Edges", fmt.Sprintf("%d", g.EdgeCount()))
	printKeyValue("Direction", string(an.Direction))
	printKeyValue("Depth", fmt.Sprintf("%d", an.Depth))
	printKeyValue("Width", fmt.Sprintf("%d", an.Width))
	printKeyValue("Density", fmt.Sprintf("%.2f", an.Density))
	printKeyValue("Branching", fmt.Sprintf("%.2f", an.BranchingFactor))
	printKeyValue("Components", fmt.Sprintf("%d", an.Components))
	printKeyValue("Cycles", fmt.Sprintf("%v", an.HasCycles))

	if len(an.Spine) > 0 {
		printKeyValue("Spine", strings.Join(an.Spine, " → "))
	}

	for _, d := range diags {
		printWarning("%s", d)
	}
	return nil
}

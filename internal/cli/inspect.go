package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/layout"
)

// inspectCommand creates the inspect command for interactive result browsing.
func (c *CLI) inspectCommand() *cobra.Command {
	var cfg layout.Config

	cmd := &cobra.Command{
		Use:   "inspect [diagram.json]",
		Short: "Interactively browse a computed layout",
		Long: `Interactively browse a computed layout.

Loads the diagram, runs the layout engine, and opens a terminal browser over
the result: node positions and sizes, edge anchor assignments, and any
diagnostics recorded during the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], cfg)
		},
	}

	bindLayoutFlags(cmd, &cfg)
	return cmd
}

func (c *CLI) runInspect(input string, cfg layout.Config) error {
	g, diags, err := flow.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}

	res, err := layout.Compute(g, cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	res.Diagnostics = append(diags, res.Diagnostics...)

	p := tea.NewProgram(NewInspectModel(res))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run inspector: %w", err)
	}

	printSuccess("Inspected %s", input)
	printStats(g.NodeCount(), g.EdgeCount(), false)
	printDetail("result: %s", severity(res))
	return nil
}

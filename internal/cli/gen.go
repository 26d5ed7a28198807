package cli

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flowgridhq/flowgrid/pkg/flow"
)

// genCommand creates the gen command for generating random test diagrams.
func (c *CLI) genCommand() *cobra.Command {
	var (
		output string
		nodes  int
		frames int
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random diagram document for testing",
		Long: `Generate a random diagram document for testing.

Produces a plausible flowchart: a start node, a chain of processes and
decisions with branches that rejoin, optional container frames, and an end
node. The same seed always produces the same diagram.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGen(output, nodes, frames, seed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "diagram.json", "output file")
	cmd.Flags().IntVarP(&nodes, "nodes", "n", 12, "number of nodes to generate")
	cmd.Flags().IntVar(&frames, "frames", 1, "number of container frames")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")

	return cmd
}

func (c *CLI) runGen(output string, nodes, frames int, seed int64) error {
	if nodes < 2 {
		nodes = 2
	}
	g, err := generateDiagram(nodes, frames, seed)
	if err != nil {
		return err
	}
	if err := flow.WriteGraphFile(g, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Generated diagram")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), false)
	printNewline()
	printNextStep("Layout", "flowgrid layout "+output)
	return nil
}

// generateDiagram builds a random but well-formed flowchart. Node IDs are
// UUIDs so generated diagrams can be merged without collisions; labels stay
// human-readable.
func generateDiagram(nodes, frames int, seed int64) (*flow.Graph, error) {
	rng := rand.New(rand.NewSource(seed))
	g := flow.New()

	middleKinds := []flow.Kind{
		flow.KindProcess, flow.KindProcess, flow.KindScreen, flow.KindDecision, flow.KindNote,
	}

	ids := make([]string, 0, nodes)
	addNode := func(kind flow.Kind, label string) (string, error) {
		id := uuid.NewString()
		if err := g.AddNode(flow.Node{ID: id, Kind: kind, Label: label}); err != nil {
			return "", err
		}
		ids = append(ids, id)
		return id, nil
	}

	start, err := addNode(flow.KindStart, "Start")
	if err != nil {
		return nil, err
	}

	prev := start
	edgeNum := 0
	addEdge := func(from, to, label string) error {
		edgeNum++
		return g.AddEdge(flow.Edge{
			ID:     fmt.Sprintf("e%d", edgeNum),
			Source: from,
			Target: to,
			Label:  label,
		})
	}

	// Middle nodes form a chain; decisions fork a branch that rejoins two
	// steps later.
	var pendingBranch string
	for i := 0; i < nodes-2; i++ {
		kind := middleKinds[rng.Intn(len(middleKinds))]
		id, err := addNode(kind, fmt.Sprintf("Step %d", i+1))
		if err != nil {
			return nil, err
		}
		if err := addEdge(prev, id, ""); err != nil {
			return nil, err
		}
		if pendingBranch != "" {
			if err := addEdge(pendingBranch, id, "no"); err != nil {
				return nil, err
			}
			pendingBranch = ""
		}
		if kind == flow.KindDecision {
			pendingBranch = id
		}
		prev = id
	}

	end, err := addNode(flow.KindEnd, "End")
	if err != nil {
		return nil, err
	}
	if err := addEdge(prev, end, ""); err != nil {
		return nil, err
	}
	if pendingBranch != "" {
		if err := addEdge(pendingBranch, end, "no"); err != nil {
			return nil, err
		}
	}

	// Frames claim a random contiguous run of middle nodes.
	middle := ids[1 : len(ids)-1]
	for f := 0; f < frames && len(middle) >= 2; f++ {
		lo := rng.Intn(len(middle) - 1)
		hi := lo + 2
		if hi > len(middle) {
			hi = len(middle)
		}
		err := g.AddNode(flow.Node{
			ID:       uuid.NewString(),
			Kind:     flow.KindFrame,
			Label:    fmt.Sprintf("Group %d", f+1),
			Contents: append([]string(nil), middle[lo:hi]...),
		})
		if err != nil {
			return nil, err
		}
	}

	return g, nil
}

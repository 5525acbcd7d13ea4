package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/graph"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dag",
		Short: "Show the manifest dependency graph",
		Long:  `Show each node's dependencies and the models that depend on it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runDAG(cmd, cmdCtx)
		},
	}
	return cmd
}

func runDAG(cmd *cobra.Command, cmdCtx *CommandContext) error {
	index := graph.Build(cmdCtx.Manifest)

	cmd.Println("Dependency Graph:")
	cmd.Println()

	for _, id := range cmdCtx.Manifest.NodeIDs() {
		cmd.Printf("  %s\n", id)
		if deps := index.Dependencies(id); len(deps) > 0 {
			cmd.Printf("    depends on: %s\n", strings.Join(deps, ", "))
		}
		if dependents := index.ReverseDependents(id); len(dependents) > 0 {
			cmd.Printf("    used by: %s\n", strings.Join(dependents, ", "))
		}
	}

	cmd.Println()
	cmd.Printf("Total: %d nodes, %d dependency edges\n", index.NodeCount(), index.EdgeCount())
	return nil
}

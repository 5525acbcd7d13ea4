package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/graph"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var undocumentedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List models and their documentation status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runList(cmd, cmdCtx, undocumentedOnly)
		},
	}

	cmd.Flags().BoolVar(&undocumentedOnly, "undocumented", false, "Only show models without a description")

	return cmd
}

func runList(cmd *cobra.Command, cmdCtx *CommandContext, undocumentedOnly bool) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Kind", "Documented", "Columns", "Declared In"})

	count := 0
	for _, id := range cmdCtx.Manifest.NodeIDs() {
		if !graph.IsModelID(id) {
			continue
		}
		node := cmdCtx.Manifest.Nodes[id]
		if undocumentedOnly && node.IsDocumented() {
			continue
		}

		documented := "no"
		if node.IsDocumented() {
			documented = "yes"
		}
		declared := node.PatchPath
		if declared == "" {
			declared = "(none)"
		}
		t.AppendRow(table.Row{node.Name, node.ResourceType, documented, len(node.Columns), declared})
		count++
	}

	t.Render()
	cmd.Printf("%d models\n", count)
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avi3tal/weaveflow/internal/graph"
	"github.com/avi3tal/weaveflow/internal/session"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a workflow document",
		Long: `Check that a workflow document is well formed: ids are unique, edges point at
existing nodes, image input counts are in range and the graph has no cycle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess := session.New(session.WithLogger(getLogger(ctx)))
			if err := importFile(sess, args[0]); err != nil {
				return err
			}
			g := sess.Graph().Snapshot()
			order, err := graph.TopologicalOrder(g.Nodes, g.Edges)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes, %d edges, ok\n", sess.Name(), len(g.Nodes), len(g.Edges))
			fmt.Fprintf(cmd.OutOrStdout(), "order: %v\n", order)
			return nil
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/avi3tal/weaveflow/internal/graph"
	"github.com/avi3tal/weaveflow/internal/session"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph FILE",
		Short: "Print the nodes and edges of a workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.New(session.WithLogger(getLogger(cmd.Context())))
			if err := importFile(sess, args[0]); err != nil {
				return err
			}
			graph.PrintGraph(cmd.OutOrStdout(), sess.Graph().Snapshot())
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/avi3tal/weaveflow/internal/session"
	"github.com/avi3tal/weaveflow/pkg/types"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var (
		nodes  []string
		all    bool
		out    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run nodes of an exported workflow",
		Long: `Run nodes of a workflow document. With --all every generator and LLM node
runs in dependency order, otherwise the nodes named by --node run concurrently.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(nodes) == 0 {
				return fmt.Errorf("nothing to run: pass --node or --all")
			}
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			log := getLogger(ctx)

			engineOpts, err := engineOptions(ctx, cfg, log, dryRun)
			if err != nil {
				return err
			}
			sess := session.New(sessionOptions(cfg, log, engineOpts)...)
			if err := importFile(sess, args[0]); err != nil {
				return err
			}

			var results []types.NodeResponse
			if all {
				results, err = sess.RunAll(ctx)
			} else {
				results, err = sess.RunNodes(ctx, nodes...)
			}
			printResults(cmd.OutOrStdout(), results)
			if err != nil {
				return err
			}

			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := sess.Export(f); err != nil {
					return err
				}
				log.Info().Str("file", out).Msg("workflow written")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&nodes, "node", nil, "Node id to run (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Run every executable node in dependency order")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the workflow with results to this file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Answer LLM nodes offline instead of calling providers")
	return cmd
}

func importFile(sess *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := sess.Import(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func printResults(w io.Writer, results []types.NodeResponse) {
	for _, r := range results {
		if r.NodeID == "" {
			continue
		}
		b := r.Node.Base()
		switch r.Status {
		case types.StatusFailed:
			fmt.Fprintf(w, "%s: %s: %s\n", r.NodeID, r.Status, b.Error)
		case types.StatusInvalid:
			fmt.Fprintf(w, "%s: %s: %s\n", r.NodeID, r.Status, b.ValidationError)
		default:
			fmt.Fprintf(w, "%s: %s\n", r.NodeID, r.Status)
			if b.Output != "" {
				fmt.Fprintf(w, "  %s\n", preview(b.Output))
			}
		}
	}
}

// preview shortens data URLs and long replies for terminal output.
func preview(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

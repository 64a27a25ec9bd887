package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avi3tal/weaveflow/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := getConfig(ctx)
			log := getLogger(ctx)

			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			engineOpts, err := engineOptions(ctx, cfg, log, dryRun)
			if err != nil {
				return err
			}

			srv := api.NewServer(api.Config{
				Addr:           cfg.Server.Addr,
				Store:          store,
				SessionOptions: sessionOptions(cfg, log, engineOpts),
				Logger:         log.With().Str("component", "api").Logger(),
			})
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Bool("dry-run", false, "Answer LLM nodes offline instead of calling providers")
	return cmd
}

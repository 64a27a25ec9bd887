// Package cli provides the weaveflow command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/avi3tal/weaveflow/internal/config"
	"github.com/avi3tal/weaveflow/internal/logger"
)

// Version is set at build time.
var Version = "0.1.0"

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "weaveflow",
		Short: "weaveflow - visual content generation graphs",
		Long: `weaveflow stores and runs content generation workflows: graphs of prompt,
upload, image generator and LLM nodes wired together by typed connections.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			log := logger.New(nil, logger.GetLogLevel(cfg.LogLevel))
			if cfg.Debug && log.GetLevel() > zerolog.DebugLevel {
				log = log.Level(zerolog.DebugLevel)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, log)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./weaveflow.yaml)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("debug", false, "Trace graph snapshots and node runs")
	rootCmd.PersistentFlags().String("storage", config.DriverSQLite, "Workflow storage driver (sqlite|memory)")
	rootCmd.PersistentFlags().String("db", config.DefaultStoragePath, "Path to the SQLite database")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-node run timeout (default 2m)")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewGraphCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return nil
}

func getLogger(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

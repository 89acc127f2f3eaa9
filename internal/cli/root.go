// Package cli wires configuration, logging and the engine packages into the
// paper-nest command line.
package cli

import (
	"context"
	"fmt"

	"github.com/paper-nest/backend/internal/config"
	"github.com/paper-nest/backend/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd builds the command tree. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "paper-nest",
		Short:         "Exam paper generation service",
		Long:          "paper-nest selects, formats and edits exam papers drawn from a zipped question bank.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "Path to config file (default ./config.yaml when present)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSelectCmd())
	root.AddCommand(newCorpusCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newAPIKeyCmd())
	return root
}

func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// loadConfig reads the config named by --config and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

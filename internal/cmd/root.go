package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"testhub/internal/config"
	"testhub/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "testhub",
	Short:        "Test management API server",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newCreateAdminCmd())
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config and starts logging; every subcommand begins here.
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"testhub/internal/db"
	"testhub/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return db.InitDB(cfg)
		},
	}
}

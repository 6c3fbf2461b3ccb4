package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rickgao/partner-reports/internal/database"
)

const flagDown = "down"

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().Int(flagDown, 0, "roll back this many migrations instead of migrating up")
}

func runMigrate(ccmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(ccmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	if steps, _ := ccmd.Flags().GetInt(flagDown); steps > 0 {
		if err := database.MigrateDown(cfg.Database, steps); err != nil {
			return err
		}
		logger.Info("rolled back migrations", "steps", steps)
		return nil
	}
	return database.Migrate(cfg.Database, logger)
}

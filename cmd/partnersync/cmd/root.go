package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	flagConfig  = "config"
	flagEnvFile = "env-file"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "partnersync",
	Short:        "Sync partner transaction history and query analytics",
	SilenceUsage: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP(flagConfig, "c", "configs/partnersync.yaml", "path to config file")
	rootCmd.PersistentFlags().String(flagEnvFile, ".env", "optional .env file loaded before the config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(checkTxCmd)
	rootCmd.AddCommand(versionCmd)
}

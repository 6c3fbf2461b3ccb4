package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/partner-reports/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(ccmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintln(ccmd.OutOrStdout(), version.String())
		fmt.Fprintf(ccmd.OutOrStdout(), "go: %s\n", info.GoVersion)
	},
}

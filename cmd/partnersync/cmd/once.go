package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const flagDryRun = "dry-run"

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single sync cycle and print per-binding results",
	RunE:  runOnce,
}

func init() {
	onceCmd.Flags().Bool(flagDryRun, false, "fetch and dedupe in memory without writing transactions or cursors")
}

func runOnce(ccmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(ccmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dryRun, _ := ccmd.Flags().GetBool(flagDryRun)
	e, err := setup(ctx, ccmd, setupOptions{dryRun: dryRun})
	if err != nil {
		return err
	}
	defer e.Close()

	orch, err := e.orchestrator()
	if err != nil {
		return err
	}

	report, err := orch.RunCycle(ctx)
	if err != nil {
		return err
	}

	out := ccmd.OutOrStdout()
	for _, st := range report.Bindings {
		fmt.Fprintln(out, st.String())
	}
	fmt.Fprintf(out, "cycle %s: %d bindings, %d failed, %s\n",
		report.ID, len(report.Bindings), report.Failed(), report.Duration)

	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d bindings failed", n, len(report.Bindings))
	}
	return nil
}

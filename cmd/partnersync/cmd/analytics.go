package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rickgao/partner-reports/internal/analytics"
)

const (
	flagPartner     = "partner"
	flagStart       = "start"
	flagEnd         = "end"
	flagGranularity = "granularity"
	flagOrder       = "order"
)

var analyticsCmd = &cobra.Command{
	Use:     "analytics",
	Short:   "Print bucketed analytics for one partner namespace as JSON",
	Example: "partnersync analytics --partner edge_sideshift --start 1704067200 --end 1706745600 --granularity monthday",
	RunE:    runAnalytics,
}

var checkTxCmd = &cobra.Command{
	Use:     "checktx",
	Short:   "Print the stored USD value of one order as JSON",
	Example: "partnersync checktx --partner edge_sideshift --order 8f2a1c",
	RunE:    runCheckTx,
}

func init() {
	analyticsCmd.Flags().String(flagPartner, "", "partner namespace (<appId>_<partnerId>)")
	analyticsCmd.MarkFlagRequired(flagPartner)
	analyticsCmd.Flags().Int64(flagStart, 0, "window start, unix seconds")
	analyticsCmd.MarkFlagRequired(flagStart)
	analyticsCmd.Flags().Int64(flagEnd, 0, "window end (exclusive), unix seconds")
	analyticsCmd.MarkFlagRequired(flagEnd)
	analyticsCmd.Flags().String(flagGranularity, "monthdayhour", "any mix of month, day and hour")

	checkTxCmd.Flags().String(flagPartner, "", "partner namespace (<appId>_<partnerId>)")
	checkTxCmd.MarkFlagRequired(flagPartner)
	checkTxCmd.Flags().String(flagOrder, "", "partner order id")
	checkTxCmd.MarkFlagRequired(flagOrder)
}

func runAnalytics(ccmd *cobra.Command, args []string) error {
	ctx := ccmd.Context()
	s, pool, logger, err := openStore(ctx, ccmd)
	if err != nil {
		return err
	}
	defer pool.Close()

	q := analytics.Query{}
	q.PartnerID, _ = ccmd.Flags().GetString(flagPartner)
	q.Start, _ = ccmd.Flags().GetInt64(flagStart)
	q.End, _ = ccmd.Flags().GetInt64(flagEnd)
	q.Granularity, _ = ccmd.Flags().GetString(flagGranularity)

	resp, err := analytics.NewService(s, logger).Query(ctx, q)
	if err != nil {
		return err
	}
	return writeJSON(ccmd, resp)
}

func runCheckTx(ccmd *cobra.Command, args []string) error {
	ctx := ccmd.Context()
	s, pool, logger, err := openStore(ctx, ccmd)
	if err != nil {
		return err
	}
	defer pool.Close()

	partnerID, _ := ccmd.Flags().GetString(flagPartner)
	orderID, _ := ccmd.Flags().GetString(flagOrder)

	res, err := analytics.NewService(s, logger).CheckTx(ctx, partnerID, orderID)
	if err != nil {
		return err
	}
	return writeJSON(ccmd, res)
}

func writeJSON(ccmd *cobra.Command, v any) error {
	enc := json.NewEncoder(ccmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

var (
	withdrawalCursor int64
	claimDryRun      bool
)

var withdrawalsCmd = &cobra.Command{
	Use:   "withdrawals",
	Short: "List the account withdrawals by status",
	Run:   runWithdrawals,
}

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim every withdrawal that is waiting on the liquidity contract",
	Run:   runClaim,
}

func init() {
	withdrawalsCmd.Flags().Int64Var(&withdrawalCursor, "cursor", 0, "timestamp cursor of the next page")
	claimCmd.Flags().BoolVar(&claimDryRun, "dry-run", false, "list the claimable withdrawals without submitting")
	rootCmd.AddCommand(withdrawalsCmd, claimCmd)
}

func cursorFlag(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func runWithdrawals(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	buckets, err := app.FetchWithdrawals(ctx, cursorFlag(withdrawalCursor))
	if err != nil {
		fail(app, "Failed to fetch withdrawals", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STATUS\tRECIPIENT\tTOKEN\tAMOUNT\tNULLIFIER")
	rows := []struct {
		status domain.WithdrawalStatus
		items  []domain.ContractWithdrawal
	}{
		{domain.WithdrawalNeedClaim, buckets.NeedClaim},
		{domain.WithdrawalRequested, buckets.Requested},
		{domain.WithdrawalRelayed, buckets.Relayed},
		{domain.WithdrawalSuccess, buckets.Success},
		{domain.WithdrawalFailed, buckets.Failed},
	}
	for _, row := range rows {
		for _, item := range row.items {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", row.status, item.Recipient, item.TokenIndex, item.Amount, item.Nullifier)
		}
	}
	_ = w.Flush()
	if buckets.Pagination.HasMore && buckets.Pagination.NextCursor != nil {
		fmt.Printf("More withdrawals: --cursor %d\n", *buckets.Pagination.NextCursor)
	}
}

func runClaim(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	buckets, err := app.FetchWithdrawals(ctx, nil)
	if err != nil {
		fail(app, "Failed to fetch withdrawals", err)
	}
	if claimDryRun {
		printJSON(buckets.NeedClaim)
		return
	}
	res, err := app.ClaimWithdrawals(ctx, buckets.NeedClaim)
	if err != nil {
		if res != nil {
			printJSON(res)
		}
		fail(app, "Claim failed", err)
	}
	printJSON(res)
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

var (
	depositToken   tokenFlags
	estimateOnly   bool
	ensureApproval bool
)

var depositCmd = &cobra.Command{
	Use:   "deposit [rollup_address] [amount]",
	Short: "Deposit tokens from the wallet into the rollup",
	Args:  cobra.ExactArgs(2),
	Run:   runDeposit,
}

func init() {
	depositToken.register(depositCmd)
	depositCmd.Flags().BoolVar(&estimateOnly, "estimate", false, "only estimate the deposit fee")
	depositCmd.Flags().BoolVar(&ensureApproval, "ensure-approval", false, "grant token approval during estimation")
	rootCmd.AddCommand(depositCmd)
}

func runDeposit(cmd *cobra.Command, args []string) {
	token, err := depositToken.token()
	if err != nil {
		fail(nil, "Invalid token", err)
	}
	req := domain.DepositRequest{
		Token:           token,
		Amount:          args[1],
		Recipient:       args[0],
		IsGasEstimation: estimateOnly,
		EnsureApproval:  ensureApproval,
	}

	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	if estimateOnly {
		fee, err := app.EstimateDepositGas(ctx, req)
		if err != nil {
			fail(app, "Deposit estimation failed", err)
		}
		fmt.Printf("Estimated fee: %s ETH\n", domain.FormatUnits(fee, domain.NativeDecimals))
		return
	}

	res, err := app.Deposit(ctx, req)
	if err != nil {
		if res != nil {
			printJSON(res)
		}
		fail(app, "Deposit failed", err)
	}
	printJSON(res)
}

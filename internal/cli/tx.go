package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

var (
	transferToken tokenFlags
	withdrawToken tokenFlags
	beneficiary   string
)

var transferCmd = &cobra.Command{
	Use:   "transfer [rollup_address] [amount]",
	Short: "Send tokens to another rollup account",
	Args:  cobra.ExactArgs(2),
	Run:   runTransfer,
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw [address] [amount]",
	Short: "Withdraw tokens to a settlement-chain address",
	Args:  cobra.ExactArgs(2),
	Run:   runWithdraw,
}

func init() {
	transferToken.register(transferCmd)
	withdrawToken.register(withdrawCmd)
	withdrawCmd.Flags().StringVar(&beneficiary, "claim-beneficiary", "", "sync the claim to this address after finalization")
	rootCmd.AddCommand(transferCmd, withdrawCmd)
}

func runTransfer(cmd *cobra.Command, args []string) {
	token, err := transferToken.token()
	if err != nil {
		fail(nil, "Invalid token", err)
	}

	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	res, err := app.BroadcastTransaction(ctx, []domain.BroadcastTransfer{{
		Address: args[0],
		Token:   token,
		Amount:  args[1],
	}}, false)
	if err != nil {
		fail(app, "Transfer failed", err)
	}
	printJSON(res)
}

func runWithdraw(cmd *cobra.Command, args []string) {
	token, err := withdrawToken.token()
	if err != nil {
		fail(nil, "Invalid token", err)
	}

	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	res, err := app.Withdraw(ctx, domain.BroadcastTransfer{
		Address:          args[0],
		Token:            token,
		Amount:           args[1],
		ClaimBeneficiary: beneficiary,
	})
	if err != nil {
		if res != nil {
			// finalized; only post-processing failed
			printJSON(res)
		}
		fail(app, "Withdrawal failed", err)
	}
	printJSON(res)
}

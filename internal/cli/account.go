package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log the configured wallet in and print the rollup address",
	Run:   runLogin,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the token balances of the account",
	Run:   runBalance,
}

var quoteTokenIndex uint32

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Quote the transfer, withdrawal and claim fees",
	Run:   runFees,
}

func init() {
	feesCmd.Flags().Uint32Var(&quoteTokenIndex, "withdraw-token-index", 0, "token index of the withdrawal to quote")
	rootCmd.AddCommand(loginCmd, balanceCmd, feesCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openClient(ctx, loadConfig())
	defer app.Close()

	res, err := app.Login(ctx)
	if err != nil {
		fail(app, "Login failed", err)
	}
	// the encryption key and access token stay out of the output
	printJSON(map[string]any{
		"address":    res.Address,
		"isLoggedIn": res.IsLoggedIn,
	})
	app.Logout(ctx)
}

func runBalance(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	balances, err := app.FetchTokenBalances(ctx)
	if err != nil {
		fail(app, "Failed to fetch balances", err)
	}
	printJSON(balances)
}

func runFees(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	transfer, err := app.GetTransferFee(ctx)
	if err != nil {
		fail(app, "Failed to quote transfer fee", err)
	}
	withdrawal, err := app.GetWithdrawalFee(ctx, quoteTokenIndex)
	if err != nil {
		fail(app, "Failed to quote withdrawal fee", err)
	}
	claim, err := app.GetClaimFee(ctx)
	if err != nil {
		fail(app, "Failed to quote claim fee", err)
	}
	printJSON(map[string]any{
		"transfer":   transfer,
		"withdrawal": withdrawal,
		"claim":      claim,
	})
}

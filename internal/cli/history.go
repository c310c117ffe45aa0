package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

var (
	historyKind   string
	historyCursor int64
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show deposit, received-transfer and sent-transaction history",
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyKind, "kind", "all", "all, deposit, transfer or tx")
	historyCmd.Flags().Int64Var(&historyCursor, "cursor", 0, "cursor of the next page")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "page size")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cursor := domain.HistoryCursor{Cursor: cursorFlag(historyCursor), Limit: historyLimit}

	ctx := context.Background()
	app := loggedIn(ctx, loadConfig())
	defer app.Close()

	var (
		out any
		err error
	)
	switch historyKind {
	case "all":
		out, err = app.FetchHistory(ctx, cursor)
	case "deposit":
		out, err = app.FetchDeposits(ctx, cursor)
	case "transfer":
		out, err = app.FetchTransfers(ctx, cursor)
	case "tx":
		out, err = app.FetchTransactions(ctx, cursor)
	default:
		err = fmt.Errorf("unknown history kind %q", historyKind)
	}
	if err != nil {
		fail(app, "Failed to fetch history", err)
	}
	printJSON(out)
}

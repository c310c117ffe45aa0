package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage/postgres"
)

var resetSyncCmd = &cobra.Command{
	Use:   "reset-sync [rollup_address]",
	Short: "Forget the last sync time of an account so the next read resyncs",
	Args:  cobra.ExactArgs(1),
	Run:   runResetSync,
}

func init() {
	rootCmd.AddCommand(resetSyncCmd)
}

func runResetSync(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	var cache storage.FetchCache
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		cache = postgres.NewFetchRepo(db)
	} else {
		var err error
		cache, err = persistentCache(cfg)
		if err != nil {
			slog.Error("Failed to open store", "error", err)
			os.Exit(1)
		}
	}
	defer func() {
		_ = cache.Close()
	}()

	if err := cache.Forget(ctx, args[0]); err != nil {
		slog.Error("Failed to reset sync time", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully reset sync time for %s\n", args[0])
}

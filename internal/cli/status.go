package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/config"
	redisclient "github.com/bertankofon/intmax2-client-sdk/internal/infra/redis"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status [rollup_address...]",
	Short: "Show when each account was last synced",
	Args:  cobra.MinimumNArgs(1),
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	synced, err := lastFetches(ctx, cfg, args)
	if err != nil {
		slog.Error("Failed to read sync status", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ADDRESS\tLAST SYNC\tAGE")
	for _, addr := range args {
		at, ok := synced[storage.NormalizeAddress(addr)]
		if !ok {
			_, _ = fmt.Fprintf(w, "%s\tnever\t-\n", addr)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", addr, at.Format(time.RFC3339), time.Since(at).Round(time.Second))
	}
	_ = w.Flush()
}

// lastFetches reads the persisted fetch times. Postgres answers in one query.
func lastFetches(ctx context.Context, cfg *config.AppConfig, addresses []string) (map[string]time.Time, error) {
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewFetchRepo(db)
		defer func() {
			_ = repo.Close()
		}()
		return repo.LastFetchMany(ctx, addresses)
	}

	cache, err := persistentCache(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cache.Close()
	}()
	out := make(map[string]time.Time, len(addresses))
	for _, addr := range addresses {
		at, ok, err := cache.LastFetch(ctx, addr)
		if err != nil {
			return nil, err
		}
		if ok {
			out[storage.NormalizeAddress(addr)] = at
		}
	}
	return out, nil
}

func persistentCache(cfg *config.AppConfig) (storage.FetchCache, error) {
	if cfg.Redis.URL == "" {
		return nil, fmt.Errorf("no persistent store configured: set database.url or redis.url")
	}
	rc, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

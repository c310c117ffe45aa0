package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/bertankofon/intmax2-client-sdk/internal/control"
	"github.com/bertankofon/intmax2-client-sdk/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "intmax",
	Short: "INTMAX2 rollup client",
	Long:  `intmax logs a wallet into the INTMAX2 rollup and moves tokens in, across and out of it.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads the config file and initializes logging.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg
}

func openClient(ctx context.Context, cfg *config.AppConfig) *control.Client {
	app, err := control.NewClient(ctx, control.Config{App: cfg})
	if err != nil {
		slog.Error("Failed to initialize client", "error", err)
		os.Exit(1)
	}
	return app
}

// loggedIn opens a client and logs the wallet in.
func loggedIn(ctx context.Context, cfg *config.AppConfig) *control.Client {
	app := openClient(ctx, cfg)
	if _, err := app.Login(ctx); err != nil {
		_ = app.Close()
		slog.Error("Login failed", "error", err)
		os.Exit(1)
	}
	return app
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Error("Failed to encode output", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func fail(app *control.Client, msg string, err error) {
	slog.Error(msg, "error", err)
	if app != nil {
		_ = app.Close()
	}
	os.Exit(1)
}

package config

import (
	"time"

	redisclient "github.com/bertankofon/intmax2-client-sdk/internal/infra/redis"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Environment Environment        `yaml:"environment"`
	Server      ServerConfig       `yaml:"server"`
	Logging     LoggingConfig      `yaml:"logging"`
	Redis       redisclient.Config `yaml:"redis"`
	Database    postgres.Config    `yaml:"database"`
	Wallet      WalletConfig       `yaml:"wallet"`
	Prover      ProverConfig       `yaml:"prover"`
	Sync        SyncConfig         `yaml:"sync"`
	Tx          TxConfig           `yaml:"tx"`

	// RPCURLL1 overrides the bundle's L1 RPC endpoint.
	RPCURLL1 string `yaml:"rpc_url_l1"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// WalletConfig selects the signing wallet.
type WalletConfig struct {
	PrivateKey   string `yaml:"private_key"`
	ProviderType string `yaml:"provider_type"`
}

// ProverConfig points at the proving module sidecar.
type ProverConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig controls the background resync task.
type SyncConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Freshness time.Duration `yaml:"freshness"`
	Attempts  int           `yaml:"attempts"`
	Backoff   time.Duration `yaml:"backoff"`
}

// TxConfig controls broadcast post-processing and receipt polling.
type TxConfig struct {
	SettleDelay            time.Duration `yaml:"settle_delay"`
	ClaimDelay             time.Duration `yaml:"claim_delay"`
	WithdrawalSyncAttempts int           `yaml:"withdrawal_sync_attempts"`
	WithdrawalSyncBackoff  time.Duration `yaml:"withdrawal_sync_backoff"`
	ReceiptPollInterval    time.Duration `yaml:"receipt_poll_interval"`
	ReceiptTimeout         time.Duration `yaml:"receipt_timeout"`
}

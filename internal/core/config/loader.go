package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if _, err := cfg.Environment.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values.
func (c *AppConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Testnet
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Prover.Timeout == 0 {
		c.Prover.Timeout = 60 * time.Second
	}

	if c.Sync.Interval == 0 {
		c.Sync.Interval = 30 * time.Second
	}
	if c.Sync.Freshness == 0 {
		c.Sync.Freshness = 180 * time.Second
	}
	if c.Sync.Attempts == 0 {
		c.Sync.Attempts = 5
	}
	if c.Sync.Backoff == 0 {
		c.Sync.Backoff = 10 * time.Second
	}

	if c.Tx.SettleDelay == 0 {
		c.Tx.SettleDelay = 40 * time.Second
	}
	if c.Tx.ClaimDelay == 0 {
		c.Tx.ClaimDelay = 40 * time.Second
	}
	if c.Tx.WithdrawalSyncAttempts == 0 {
		c.Tx.WithdrawalSyncAttempts = 5
	}
	if c.Tx.WithdrawalSyncBackoff == 0 {
		c.Tx.WithdrawalSyncBackoff = time.Second
	}
	if c.Tx.ReceiptPollInterval == 0 {
		c.Tx.ReceiptPollInterval = 3 * time.Second
	}
	if c.Tx.ReceiptTimeout == 0 {
		c.Tx.ReceiptTimeout = 10 * time.Minute
	}
}

// URLs resolves the environment bundle and applies overrides.
func (c *AppConfig) URLs() (URLs, error) {
	urls, err := Resolve(c.Environment)
	if err != nil {
		return URLs{}, err
	}
	if c.RPCURLL1 != "" {
		urls.RPCURLL1 = c.RPCURLL1
	}
	return urls, nil
}

package config

import (
	"fmt"
	"strings"
)

type Environment string

const (
	Devnet  Environment = "devnet"
	Testnet Environment = "testnet"
	Mainnet Environment = "mainnet"
)

// Validate normalizes the environment name.
func (e Environment) Validate() (Environment, error) {
	n := Environment(strings.ToLower(strings.TrimSpace(string(e))))
	if _, ok := bundles[n]; !ok {
		return "", fmt.Errorf("unknown environment %q", e)
	}
	return n, nil
}

// URLs is the endpoint and contract bundle of one environment.
type URLs struct {
	BalanceProverURL        string
	IndexerURL              string
	ValidityProverURL       string
	StoreVaultServerURL     string
	WithdrawalAggregatorURL string
	PredicateURL            string
	KeyVaultURL             string
	TokensURL               string

	ChainIDL1 int64
	ChainIDL2 int64
	RPCURLL1  string
	RPCURLL2  string

	LiquidityContract  string
	RollupContract     string
	WithdrawalContract string
	PredicateContract  string
}

var stage = URLs{
	BalanceProverURL:        "https://stage.api.private.zkp.intmax.io",
	IndexerURL:              "https://stage.api.indexer.intmax.io/v1/indexer",
	ValidityProverURL:       "https://stage.api.node.intmax.io/validity-prover",
	StoreVaultServerURL:     "https://stage.api.node.intmax.io/store-vault-server",
	WithdrawalAggregatorURL: "https://stage.api.node.intmax.io/withdrawal-server",
	PredicateURL:            "https://stage.api.predicate.intmax.io/v1/predicate",
	KeyVaultURL:             "https://slxcnfhgxpfokwtathje.supabase.co/functions/v1/keyvault/external",
	TokensURL:               "https://stage.api.token.intmax.io/v1",
	ChainIDL1:               11155111,
	ChainIDL2:               534351,
	RPCURLL1:                "https://sepolia.gateway.tenderly.co",
	RPCURLL2:                "https://sepolia-rpc.scroll.io",
	LiquidityContract:       "0x81f3843aF1FBaB046B771f0d440C04EBB2b7513F",
	RollupContract:          "0xcEC03800074d0ac0854bF1f34153cc4c8bAEeB1E",
	WithdrawalContract:      "0x914aBB5c7ea6352B618eb5FF61F42b96AD0325e7",
	PredicateContract:       "0x4D9B3CF9Cb04B27C5D221c82B428D9dE990D3e3a",
}

var bundles = map[Environment]URLs{
	// mainnet still points at stage; login is rejected before it is used
	Mainnet: stage,
	Testnet: stage,
	Devnet: {
		BalanceProverURL:        "https://dev.api.private.zkp.intmax.xyz",
		IndexerURL:              "https://dev.api.indexer.intmax.xyz/v1/indexer",
		ValidityProverURL:       "https://dev.api.node.intmax.xyz/validity-prover",
		StoreVaultServerURL:     "https://dev.api.node.intmax.xyz/store-vault-server",
		WithdrawalAggregatorURL: "https://dev.api.node.intmax.xyz/withdrawal-server",
		PredicateURL:            "https://dev.api.predicate.intmax.xyz/v1/predicate",
		KeyVaultURL:             "https://oimhddprvflxjsumnmmg.supabase.co/functions/v1/keyvault",
		TokensURL:               "https://dev.api.token.intmax.xyz/v1",
		ChainIDL1:               11155111,
		ChainIDL2:               534351,
		RPCURLL1:                "https://sepolia.gateway.tenderly.co",
		RPCURLL2:                "https://sepolia-rpc.scroll.io",
		LiquidityContract:       "0xb2444035331beB6f77aEB973D892eA99ED9af11C",
		RollupContract:          "0x89ce460949Bd7CDbC30BA48EbA59eC36AdFBE04f",
		WithdrawalContract:      "0x12c07A77cfB597C74a5eA1a3EecFc1D4D138dbD0",
		PredicateContract:       "0x4D9B3CF9Cb04B27C5D221c82B428D9dE990D3e3a",
	},
}

// Resolve returns the bundle for env.
func Resolve(env Environment) (URLs, error) {
	n, err := env.Validate()
	if err != nil {
		return URLs{}, err
	}
	return bundles[n], nil
}

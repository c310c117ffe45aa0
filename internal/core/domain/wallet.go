package domain

import "strings"

// ProviderType names the wallet software that produced a signature.
type ProviderType string

const (
	ProviderCoinbase ProviderType = "coinbase wallet"
	ProviderTrust    ProviderType = "trust wallet"
	ProviderBitget   ProviderType = "bitget wallet"
	ProviderRabby    ProviderType = "rabby wallet"
	ProviderOKX      ProviderType = "okx wallet"
	ProviderMetamask ProviderType = "metamask"
	// ProviderInHouse is the designated in-house wallet.
	ProviderInHouse ProviderType = "intmax wallet"
)

var supportedProviders = map[ProviderType]struct{}{
	ProviderCoinbase: {},
	ProviderTrust:    {},
	ProviderBitget:   {},
	ProviderRabby:    {},
	ProviderOKX:      {},
	ProviderInHouse:  {},
	ProviderMetamask: {},
}

// Normalize lowercases and trims the provider name.
func (p ProviderType) Normalize() ProviderType {
	return ProviderType(strings.ToLower(strings.TrimSpace(string(p))))
}

// Supported reports whether signatures from p are known to be deterministic.
func (p ProviderType) Supported() bool {
	_, ok := supportedProviders[p.Normalize()]
	return ok
}

func (p ProviderType) IsInHouse() bool {
	return p.Normalize() == ProviderInHouse
}

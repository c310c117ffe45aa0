package domain

import "math/big"

// Fee is an amount of a given token, in base units.
type Fee struct {
	TokenIndex uint32 `json:"token_index"`
	Amount     string `json:"amount"`
}

// AmountInt parses the fee amount. ok is false for malformed amounts.
func (f Fee) AmountInt() (*big.Int, bool) {
	return new(big.Int).SetString(f.Amount, 10)
}

// FeeQuote is fetched fresh for every pipeline run and never cached.
type FeeQuote struct {
	Beneficiary   string `json:"beneficiary"`
	Fee           *Fee   `json:"fee,omitempty"`
	CollateralFee *Fee   `json:"collateral_fee,omitempty"`
}

// FeeInfo is what a block builder advertises on /fee-info.
type FeeInfo struct {
	NonRegistrationFee []Fee `json:"nonRegistrationFee"`
	RegistrationFee    []Fee `json:"registrationFee"`
}

// NativeFee returns the entry for the native asset (token index 0).
func NativeFee(fees []Fee) (Fee, bool) {
	for _, f := range fees {
		if f.TokenIndex == 0 {
			return f, true
		}
	}
	return Fee{}, false
}

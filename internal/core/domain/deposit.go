package domain

import "math/big"

// DepositRequest is the caller-facing deposit input.
type DepositRequest struct {
	Token Token
	// Amount is in display units for fungible tokens and ignored for ERC721.
	Amount string
	// Recipient is the rollup identity credited by the deposit.
	Recipient string
	// IsGasEstimation prepares the call with a throwaway salt.
	IsGasEstimation bool
	// EnsureApproval opts an estimation run into the approval check.
	EnsureApproval bool
}

// DepositSpec is built once per deposit attempt.
type DepositSpec struct {
	TokenType             TokenType
	TokenAddress          string
	TokenIndex            uint32
	TokenID               *big.Int
	Amount                *big.Int
	RecipientSaltHash     [32]byte
	AMLPermission         []byte
	EligibilityPermission []byte
}

// DepositResult reports a submitted deposit.
type DepositResult struct {
	TxHash string            `json:"tx_hash"`
	Status TransactionStatus `json:"status"`
}

// DepositPreparation is the salt binding a deposit to its recipient.
type DepositPreparation struct {
	Pubkey   string `json:"pubkey"`
	Salt     string `json:"salt"`
	SaltHash string `json:"pubkey_salt_hash"`
}

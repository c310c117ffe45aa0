package domain

import (
	"encoding/json"
	"sync/atomic"
)

// TransferRequest is one leg of a rollup transaction. A list of them is
// submitted atomically.
type TransferRequest struct {
	Recipient  string  `json:"recipient"`
	TokenIndex uint32  `json:"token_index"`
	Amount     string  `json:"amount"`
	Salt       *string `json:"salt,omitempty"`
}

// BroadcastTransfer is the caller-facing description of a transfer or
// withdrawal before amounts are normalized.
type BroadcastTransfer struct {
	Address string `json:"address"`
	Token   Token  `json:"token"`
	// Amount is in display units ("1.5"), scaled by Token.Decimals.
	Amount string `json:"amount"`
	// ClaimBeneficiary, when set on a withdrawal, triggers claim sync after finalization.
	ClaimBeneficiary string `json:"claim_beneficiary,omitempty"`
}

// WithdrawalTransfers is the fee-augmented transfer set produced for a withdrawal.
type WithdrawalTransfers struct {
	TransferRequests           []TransferRequest `json:"transfer_requests"`
	WithdrawalFeeTransferIndex *int              `json:"withdrawal_fee_transfer_index,omitempty"`
	ClaimFeeTransferIndex      *int              `json:"claim_fee_transfer_index,omitempty"`
}

// TxMemo is the opaque handle returned by submission and consumed by finalization.
type TxMemo struct {
	Raw  json.RawMessage
	used atomic.Bool
}

// NewTxMemo wraps a raw submission handle.
func NewTxMemo(raw json.RawMessage) *TxMemo {
	return &TxMemo{Raw: raw}
}

// Take returns the raw handle the first time it is called and false afterwards.
func (m *TxMemo) Take() (json.RawMessage, bool) {
	if m == nil || !m.used.CompareAndSwap(false, true) {
		return nil, false
	}
	return m.Raw, true
}

// TxResult is the outcome of a finalized rollup transaction.
type TxResult struct {
	TxTreeRoot      string   `json:"tx_tree_root"`
	TransferDigests []string `json:"transfer_digests"`
}

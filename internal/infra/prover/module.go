// Package prover binds the external proving module.
//
// The module performs every zero-knowledge computation: key derivation,
// fee quoting, proof sync and transfer submission. It is reached through a
// JSON-RPC sidecar; Module is the full surface consumed by the client.
package prover

import (
	"context"
	"encoding/json"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

// Module is the proving module as seen by the orchestration layer.
type Module interface {
	AccountFromEthKey(ctx context.Context, ethKey string, isLegacy bool) (*domain.KeySet, error)

	QuoteTransferFee(ctx context.Context, builderURL, spendPub string, feeTokenIndex uint32) (*domain.FeeQuote, error)
	QuoteWithdrawalFee(ctx context.Context, withdrawalTokenIndex, feeTokenIndex uint32) (*domain.FeeQuote, error)
	QuoteClaimFee(ctx context.Context, feeTokenIndex uint32) (*domain.FeeQuote, error)

	GenerateWithdrawalTransfers(ctx context.Context, transfer domain.TransferRequest, feeTokenIndex uint32, withClaimFee bool) (*domain.WithdrawalTransfers, error)
	GenerateFeePaymentMemo(ctx context.Context, transfers []domain.TransferRequest, withdrawalFeeIndex, claimFeeIndex *int) (json.RawMessage, error)
	AwaitTxSendable(ctx context.Context, viewKey string, transfers []domain.TransferRequest, fee *domain.FeeQuote) error
	SendTxRequest(ctx context.Context, req SendTxRequest) (*domain.TxMemo, error)
	QueryAndFinalize(ctx context.Context, builderURL, keyPair string, memo *domain.TxMemo) (*domain.TxResult, error)

	Sync(ctx context.Context, viewKey string) error
	SyncWithdrawals(ctx context.Context, viewKey string, feeTokenIndex uint32) error
	SyncClaims(ctx context.Context, viewKey, beneficiary string, feeTokenIndex uint32) error

	GetUserData(ctx context.Context, viewKey string) (*domain.UserData, error)
	GetBalancesWithoutSync(ctx context.Context, viewKey string) ([]domain.TokenBalance, error)
	FetchDepositHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error)
	FetchTransferHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error)
	FetchTxHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error)
	GetWithdrawalInfo(ctx context.Context, viewKey string, cursor domain.TimestampCursor) (*domain.WithdrawalPage, error)

	PrepareDeposit(ctx context.Context, req PrepareDepositRequest) (*domain.DepositPreparation, error)

	SignMessage(ctx context.Context, spendKey string, message []byte) ([]string, error)
	VerifySignature(ctx context.Context, signature []string, spendPub string, message []byte) (bool, error)
}

// SendTxRequest is the submission of a transfer set to a block builder.
type SendTxRequest struct {
	BuilderURL   string                   `json:"block_builder_url"`
	KeyPair      string                   `json:"key_pair"`
	Transfers    []domain.TransferRequest `json:"transfer_requests"`
	PaymentMemos json.RawMessage          `json:"payment_memos"`
	Fee          *domain.FeeQuote         `json:"fee_quote"`
}

// PrepareDepositRequest asks the module to bind a deposit to a recipient.
type PrepareDepositRequest struct {
	Depositor    string           `json:"depositor"`
	Recipient    string           `json:"pubkey"`
	Amount       string           `json:"amount"`
	TokenType    domain.TokenType `json:"token_type"`
	TokenAddress string           `json:"token_address"`
	TokenID      string           `json:"token_id"`
	IsMining     bool             `json:"is_mining"`
}

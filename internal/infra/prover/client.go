package prover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/rpc/provider"
)

// ErrMemoConsumed is returned when a TxMemo is finalized twice.
var ErrMemoConsumed = errors.New("tx memo already consumed")

// Client calls the proving module sidecar over JSON-RPC.
type Client struct {
	rpc provider.RPCProvider
}

var _ Module = (*Client)(nil)

// NewClient creates a sidecar client at url.
func NewClient(url string, timeout time.Duration) *Client {
	return NewClientWithProvider(provider.NewHTTPProvider("prover", url, timeout))
}

func NewClientWithProvider(p provider.RPCProvider) *Client {
	return &Client{rpc: p}
}

// Provider returns the underlying transport.
func (c *Client) Provider() provider.Provider {
	return c.rpc
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	if err := c.rpc.Call(ctx, method, params, out); err != nil {
		return fmt.Errorf("prover %s: %w", method, err)
	}
	return nil
}

func (c *Client) AccountFromEthKey(ctx context.Context, ethKey string, isLegacy bool) (*domain.KeySet, error) {
	var out domain.KeySet
	err := c.call(ctx, "generate_account_from_eth_key", map[string]any{
		"eth_private_key": ethKey,
		"is_legacy":       isLegacy,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QuoteTransferFee(ctx context.Context, builderURL, spendPub string, feeTokenIndex uint32) (*domain.FeeQuote, error) {
	var out domain.FeeQuote
	err := c.call(ctx, "quote_transfer_fee", map[string]any{
		"block_builder_url": builderURL,
		"pubkey":            spendPub,
		"fee_token_index":   feeTokenIndex,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QuoteWithdrawalFee(ctx context.Context, withdrawalTokenIndex, feeTokenIndex uint32) (*domain.FeeQuote, error) {
	var out domain.FeeQuote
	err := c.call(ctx, "quote_withdrawal_fee", map[string]any{
		"withdrawal_token_index": withdrawalTokenIndex,
		"fee_token_index":        feeTokenIndex,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QuoteClaimFee(ctx context.Context, feeTokenIndex uint32) (*domain.FeeQuote, error) {
	var out domain.FeeQuote
	err := c.call(ctx, "quote_claim_fee", map[string]any{"fee_token_index": feeTokenIndex}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateWithdrawalTransfers(
	ctx context.Context,
	transfer domain.TransferRequest,
	feeTokenIndex uint32,
	withClaimFee bool,
) (*domain.WithdrawalTransfers, error) {
	var out domain.WithdrawalTransfers
	err := c.call(ctx, "generate_withdrawal_transfers", map[string]any{
		"withdrawal_transfer": transfer,
		"fee_token_index":     feeTokenIndex,
		"with_claim_fee":      withClaimFee,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateFeePaymentMemo(
	ctx context.Context,
	transfers []domain.TransferRequest,
	withdrawalFeeIndex, claimFeeIndex *int,
) (json.RawMessage, error) {
	if transfers == nil {
		transfers = []domain.TransferRequest{}
	}
	var out json.RawMessage
	err := c.call(ctx, "generate_fee_payment_memo", map[string]any{
		"transfer_requests":             transfers,
		"withdrawal_fee_transfer_index": withdrawalFeeIndex,
		"claim_fee_transfer_index":      claimFeeIndex,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AwaitTxSendable(ctx context.Context, viewKey string, transfers []domain.TransferRequest, fee *domain.FeeQuote) error {
	return c.call(ctx, "await_tx_sendable", map[string]any{
		"view_pair":         viewKey,
		"transfer_requests": transfers,
		"fee_quote":         fee,
	}, nil)
}

func (c *Client) SendTxRequest(ctx context.Context, req SendTxRequest) (*domain.TxMemo, error) {
	var raw json.RawMessage
	err := c.call(ctx, "send_tx_request", map[string]any{
		"block_builder_url": req.BuilderURL,
		"key_pair":          req.KeyPair,
		"transfer_requests": req.Transfers,
		"payment_memos":     req.PaymentMemos,
		"fee_quote":         req.Fee,
	}, &raw)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("prover send_tx_request: empty memo")
	}
	return domain.NewTxMemo(raw), nil
}

func (c *Client) QueryAndFinalize(ctx context.Context, builderURL, keyPair string, memo *domain.TxMemo) (*domain.TxResult, error) {
	raw, ok := memo.Take()
	if !ok {
		return nil, ErrMemoConsumed
	}
	var out struct {
		TxTreeRoot string `json:"tx_tree_root"`
		TxData     struct {
			TransferDigests []string `json:"transfer_digests"`
		} `json:"tx_data"`
	}
	err := c.call(ctx, "query_and_finalize", map[string]any{
		"block_builder_url": builderURL,
		"key_pair":          keyPair,
		"tx_request_memo":   raw,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &domain.TxResult{TxTreeRoot: out.TxTreeRoot, TransferDigests: out.TxData.TransferDigests}, nil
}

func (c *Client) Sync(ctx context.Context, viewKey string) error {
	return c.call(ctx, "sync", map[string]any{"view_pair": viewKey}, nil)
}

func (c *Client) SyncWithdrawals(ctx context.Context, viewKey string, feeTokenIndex uint32) error {
	return c.call(ctx, "sync_withdrawals", map[string]any{
		"view_pair":       viewKey,
		"fee_token_index": feeTokenIndex,
	}, nil)
}

func (c *Client) SyncClaims(ctx context.Context, viewKey, beneficiary string, feeTokenIndex uint32) error {
	return c.call(ctx, "sync_claims", map[string]any{
		"view_pair":       viewKey,
		"recipient":       beneficiary,
		"fee_token_index": feeTokenIndex,
	}, nil)
}

func (c *Client) GetUserData(ctx context.Context, viewKey string) (*domain.UserData, error) {
	var out domain.UserData
	if err := c.call(ctx, "get_user_data", map[string]any{"view_pair": viewKey}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBalancesWithoutSync(ctx context.Context, viewKey string) ([]domain.TokenBalance, error) {
	var out []domain.TokenBalance
	if err := c.call(ctx, "get_balances_without_sync", map[string]any{"view_pair": viewKey}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetchHistory(ctx context.Context, method, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	var out domain.HistoryPage
	err := c.call(ctx, method, map[string]any{
		"view_pair": viewKey,
		"cursor":    cursor.Cursor,
		"limit":     cursor.Limit,
		"order":     "desc",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchDepositHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return c.fetchHistory(ctx, "fetch_deposit_history", viewKey, cursor)
}

func (c *Client) FetchTransferHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return c.fetchHistory(ctx, "fetch_transfer_history", viewKey, cursor)
}

func (c *Client) FetchTxHistory(ctx context.Context, viewKey string, cursor domain.HistoryCursor) (*domain.HistoryPage, error) {
	return c.fetchHistory(ctx, "fetch_tx_history", viewKey, cursor)
}

func (c *Client) GetWithdrawalInfo(ctx context.Context, viewKey string, cursor domain.TimestampCursor) (*domain.WithdrawalPage, error) {
	var out domain.WithdrawalPage
	err := c.call(ctx, "get_withdrawal_info", map[string]any{
		"view_pair": viewKey,
		"cursor":    cursor.Cursor,
		"order":     cursor.Order,
		"limit":     cursor.Limit,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PrepareDeposit(ctx context.Context, req PrepareDepositRequest) (*domain.DepositPreparation, error) {
	var out struct {
		DepositData domain.DepositPreparation `json:"deposit_data"`
	}
	err := c.call(ctx, "prepare_deposit", map[string]any{
		"depositor":     req.Depositor,
		"pubkey":        req.Recipient,
		"amount":        req.Amount,
		"token_type":    int(req.TokenType),
		"token_address": req.TokenAddress,
		"token_id":      req.TokenID,
		"is_mining":     req.IsMining,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.DepositData.SaltHash == "" {
		return nil, fmt.Errorf("prover prepare_deposit: empty salt hash")
	}
	return &out.DepositData, nil
}

func (c *Client) SignMessage(ctx context.Context, spendKey string, message []byte) ([]string, error) {
	var out []string
	err := c.call(ctx, "sign_message", map[string]any{
		"private_key": spendKey,
		"message":     hexutil.Encode(message),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) VerifySignature(ctx context.Context, signature []string, spendPub string, message []byte) (bool, error) {
	var out bool
	err := c.call(ctx, "verify_signature", map[string]any{
		"signature": signature,
		"pubkey":    spendPub,
		"message":   hexutil.Encode(message),
	}, &out)
	if err != nil {
		return false, err
	}
	return out, nil
}

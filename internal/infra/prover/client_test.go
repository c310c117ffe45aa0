package prover

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

type rpcCall struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
	ID     int64          `json:"id"`
}

type fakeSidecar struct {
	mu      sync.Mutex
	calls   []rpcCall
	results map[string]any
	errs    map[string]string
}

func newFakeSidecar(t *testing.T) (*fakeSidecar, *Client) {
	t.Helper()
	f := &fakeSidecar{results: map[string]any{}, errs: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		result, msg := f.results[call.Method], f.errs[call.Method]
		f.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": call.ID}
		if msg != "" {
			resp["error"] = map[string]any{"code": -32000, "message": msg}
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL, 5*time.Second)
}

func (f *fakeSidecar) last() rpcCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func TestAccountFromEthKey(t *testing.T) {
	f, c := newFakeSidecar(t)
	f.results["generate_account_from_eth_key"] = map[string]any{
		"address":   "T1abc",
		"key_pair":  "kp",
		"spend_key": "sk",
		"spend_pub": "sp",
		"view_pair": "vp",
	}

	keys, err := c.AccountFromEthKey(context.Background(), "0xdead", true)
	if err != nil {
		t.Fatalf("AccountFromEthKey: %v", err)
	}
	if keys.Address != "T1abc" || keys.ViewPair != "vp" || keys.SpendPub != "sp" {
		t.Errorf("unexpected keys: %+v", keys)
	}
	call := f.last()
	if call.Params["eth_private_key"] != "0xdead" || call.Params["is_legacy"] != true {
		t.Errorf("unexpected params: %v", call.Params)
	}
}

func TestSendAndFinalizeConsumesMemo(t *testing.T) {
	f, c := newFakeSidecar(t)
	f.results["send_tx_request"] = map[string]any{"tx_tree_root": "0xroot", "opaque": 1}
	f.results["query_and_finalize"] = map[string]any{
		"tx_tree_root": "0xroot",
		"tx_data":      map[string]any{"transfer_digests": []string{"0xd1", "0xd2"}},
	}
	ctx := context.Background()

	memo, err := c.SendTxRequest(ctx, SendTxRequest{
		BuilderURL: "https://builder",
		KeyPair:    "kp",
		Transfers:  []domain.TransferRequest{{Recipient: "T1x", Amount: "10"}},
	})
	if err != nil {
		t.Fatalf("SendTxRequest: %v", err)
	}

	res, err := c.QueryAndFinalize(ctx, "https://builder", "kp", memo)
	if err != nil {
		t.Fatalf("QueryAndFinalize: %v", err)
	}
	if res.TxTreeRoot != "0xroot" || len(res.TransferDigests) != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	sent, ok := f.last().Params["tx_request_memo"].(map[string]any)
	if !ok || sent["opaque"] != float64(1) {
		t.Errorf("memo not forwarded verbatim: %v", f.last().Params)
	}

	if _, err := c.QueryAndFinalize(ctx, "https://builder", "kp", memo); !errors.Is(err, ErrMemoConsumed) {
		t.Errorf("expected ErrMemoConsumed, got %v", err)
	}
}

func TestSendTxRequestEmptyMemo(t *testing.T) {
	_, c := newFakeSidecar(t)
	if _, err := c.SendTxRequest(context.Background(), SendTxRequest{}); err == nil {
		t.Fatal("expected error for null memo")
	}
}

func TestRPCErrorIsWrapped(t *testing.T) {
	f, c := newFakeSidecar(t)
	f.errs["sync"] = "balance proof unavailable"

	err := c.Sync(context.Background(), "vp")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "prover sync: rpc error -32000: balance proof unavailable" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestPrepareDeposit(t *testing.T) {
	f, c := newFakeSidecar(t)
	f.results["prepare_deposit"] = map[string]any{
		"deposit_data": map[string]any{"pubkey": "0xpub", "salt": "0xs", "pubkey_salt_hash": "0xhash"},
	}

	prep, err := c.PrepareDeposit(context.Background(), PrepareDepositRequest{
		Depositor: "0xabc",
		Recipient: "0xpub",
		Amount:    "1000",
		TokenType: domain.TokenTypeERC20,
	})
	if err != nil {
		t.Fatalf("PrepareDeposit: %v", err)
	}
	if prep.SaltHash != "0xhash" {
		t.Errorf("unexpected salt hash %q", prep.SaltHash)
	}
	if got := f.last().Params["token_type"]; got != float64(1) {
		t.Errorf("token_type = %v", got)
	}
}

func TestGetWithdrawalInfoPassesCursor(t *testing.T) {
	f, c := newFakeSidecar(t)
	f.results["get_withdrawal_info"] = map[string]any{
		"records": []any{map[string]any{
			"status":              "need_claim",
			"contract_withdrawal": map[string]any{"recipient": "0xabc", "nullifier": "0x01", "amount": "5", "token_index": 0},
		}},
		"pagination": map[string]any{"has_more": true, "next_cursor": 42, "total_count": 3},
	}
	cursor := int64(100)

	page, err := c.GetWithdrawalInfo(context.Background(), "vp", domain.TimestampCursor{Cursor: &cursor, Limit: 256, Order: "desc"})
	if err != nil {
		t.Fatalf("GetWithdrawalInfo: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0].Status != domain.WithdrawalNeedClaim {
		t.Errorf("unexpected records: %+v", page.Records)
	}
	if !page.Pagination.HasMore || page.Pagination.NextCursor == nil || *page.Pagination.NextCursor != 42 {
		t.Errorf("unexpected pagination: %+v", page.Pagination)
	}
	params := f.last().Params
	if params["cursor"] != float64(100) || params["limit"] != float64(256) || params["order"] != "desc" {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestVerifySignature(t *testing.T) {
	f, c := newFakeSidecar(t)
	f.results["verify_signature"] = true

	ok, err := c.VerifySignature(context.Background(), []string{"0x1", "0x2"}, "sp", []byte("hi"))
	if err != nil || !ok {
		t.Fatalf("VerifySignature = %v, %v", ok, err)
	}
	if got := f.last().Params["message"]; got != "0x6869" {
		t.Errorf("message = %v", got)
	}
}

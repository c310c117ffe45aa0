package predicate

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestClient_Evaluate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/predicate/evaluate-policy" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.MsgValue != "10" {
			t.Errorf("unexpected msg_value %q", req.MsgValue)
		}
		_, _ = w.Write([]byte(`{"data":{"is_compliant":true,"signers":["0x0000000000000000000000000000000000000001"],"signature":["0x01"],"expiry_block":99,"task_id":"t1"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/v1/predicate", 5*time.Second)
	att, err := c.Evaluate(context.Background(), Request{From: "0x1", To: "0x2", Data: "0x", MsgValue: "10"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !att.IsCompliant || att.TaskID != "t1" || att.ExpiryBlock != 99 {
		t.Errorf("unexpected attestation %+v", att)
	}
}

func TestEncodePermission(t *testing.T) {
	att := &Attestation{
		IsCompliant: true,
		Signers:     []string{"0x0000000000000000000000000000000000000001"},
		Signature:   []string{"0xdeadbeef"},
		ExpiryBlock: 1000,
		TaskID:      "task",
	}
	blob, err := EncodePermission(att)
	if err != nil {
		t.Fatalf("EncodePermission: %v", err)
	}
	// dynamic tuple: first word is the offset to the tuple body
	if len(blob) < 32 || new(big.Int).SetBytes(blob[:32]).Int64() != 32 {
		t.Fatalf("unexpected tuple head %x", blob[:32])
	}

	values, err := permissionArgs.Unpack(blob)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("expected 1 value, got %d", len(values))
	}
}

func TestEncodePermission_Mismatch(t *testing.T) {
	_, err := EncodePermission(&Attestation{Signers: []string{"0x01"}, Signature: nil})
	if err == nil {
		t.Fatal("expected error for mismatched signers")
	}
}

func TestEncodeBody(t *testing.T) {
	data, err := EncodeBody(BodyParams{
		TokenType:    1,
		Amount:       big.NewInt(5),
		TokenAddress: common.HexToAddress("0x0000000000000000000000000000000000000002"),
	})
	if err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	if !strings.HasPrefix(data, "0x") || len(data) != 2+5*64 {
		t.Errorf("unexpected encoding length %d", len(data))
	}
}

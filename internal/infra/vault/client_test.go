package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_LoginFlow(t *testing.T) {
	var logoutAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/challenge", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["type"] != "login" || body["address"] != "0xabc" {
			t.Errorf("unexpected challenge body %v", body)
		}
		_, _ = w.Write([]byte(`{"message":"sign me"}`))
	})
	mux.HandleFunc("/wallet/hashed-network-message", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hashedNetworkMessage":null,"walletProviderType":null}`))
	})
	mux.HandleFunc("/wallet/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SecuritySeed != "0xseed" || req.WalletProviderType != "metamask" {
			t.Errorf("unexpected login request %+v", req)
		}
		_, _ = w.Write([]byte(`{"hashedSignature":"aGFzaA==","nonce":3,"accessToken":"tok"}`))
	})
	mux.HandleFunc("/wallet/meta/0xabc", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"meta":{"isLegacy":true}}`))
	})
	mux.HandleFunc("/wallet/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second)
	ctx := context.Background()

	ch, err := c.Challenge(ctx, "0xabc", "login")
	if err != nil || ch.Message != "sign me" {
		t.Fatalf("Challenge: %v %+v", err, ch)
	}

	hnm, err := c.HashedNetworkMessage(ctx, "0xabc", "0xsig")
	if err != nil {
		t.Fatalf("HashedNetworkMessage: %v", err)
	}
	if hnm.HashedNetworkMessage != nil || hnm.WalletProviderType != nil {
		t.Errorf("expected nil fields, got %+v", hnm)
	}

	login, err := c.Login(ctx, LoginRequest{
		Address:            "0xabc",
		ChallengeSignature: "0xsig",
		SecuritySeed:       "0xseed",
		WalletProviderType: "metamask",
	})
	if err != nil || login.Nonce != 3 {
		t.Fatalf("Login: %v %+v", err, login)
	}

	meta, err := c.Meta(ctx, "0xabc")
	if err != nil || !meta.Meta.IsLegacy {
		t.Fatalf("Meta: %v %+v", err, meta)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if logoutAuth != "Bearer tok" {
		t.Errorf("expected token on logout, got %q", logoutAuth)
	}
	if h := c.headers(); h != nil {
		t.Errorf("token not cleared: %v", h)
	}
}

func TestClient_ChallengeEmptyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	if _, err := c.Challenge(context.Background(), "0xabc", "login"); err == nil {
		t.Fatal("expected error for empty challenge")
	}
}

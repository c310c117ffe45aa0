package domain

import "time"

// Session holds the key material of a logged-in account.
// It is owned by the auth manager; other components only see a SessionView.
type Session struct {
	// Address is the rollup identity of the account.
	Address string
	// WalletAddress is the on-chain address that signed the login.
	WalletAddress   string
	IsAuthenticated bool

	KeyPair        string
	SpendKey       string
	SpendPublicKey string
	ViewKey        string

	AccessToken  string
	LastSyncedAt time.Time
}

// Clear zeroes every secret field and marks the session unauthenticated.
func (s *Session) Clear() {
	s.IsAuthenticated = false
	s.Address = ""
	s.WalletAddress = ""
	s.KeyPair = ""
	s.SpendKey = ""
	s.SpendPublicKey = ""
	s.ViewKey = ""
	s.AccessToken = ""
	s.LastSyncedAt = time.Time{}
}

// HasSecrets reports whether any secret field is still populated.
func (s *Session) HasSecrets() bool {
	return s.KeyPair != "" || s.SpendKey != "" || s.ViewKey != "" || s.SpendPublicKey != ""
}

// View returns a read-only copy of the non-spending parts of the session.
func (s *Session) View() SessionView {
	return SessionView{
		Address:        s.Address,
		WalletAddress:  s.WalletAddress,
		Authenticated:  s.IsAuthenticated,
		SpendPublicKey: s.SpendPublicKey,
		ViewKey:        s.ViewKey,
		LastSyncedAt:   s.LastSyncedAt,
	}
}

// SessionView is the snapshot lent to pipeline components.
// The spend key and key pair are never part of it.
type SessionView struct {
	Address        string
	WalletAddress  string
	Authenticated  bool
	SpendPublicKey string
	ViewKey        string
	LastSyncedAt   time.Time
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Address       string `json:"address"`
	IsLoggedIn    bool   `json:"isLoggedIn"`
	Nonce         int64  `json:"nonce"`
	EncryptionKey string `json:"encryptionKey"`
	AccessToken   string `json:"accessToken,omitempty"`
}

// KeySet is the account key material derived by the proving module.
type KeySet struct {
	Address  string `json:"address"`
	KeyPair  string `json:"key_pair"`
	SpendKey string `json:"spend_key"`
	SpendPub string `json:"spend_pub"`
	ViewPair string `json:"view_pair"`
}

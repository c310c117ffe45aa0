// Package auth runs the login handshake and owns the session.
package auth

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/config"
	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/vault"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/wallet"
	"github.com/bertankofon/intmax2-client-sdk/internal/metrics"
)

// Vault is the authentication service.
type Vault interface {
	Challenge(ctx context.Context, address, intent string) (*vault.ChallengeResponse, error)
	HashedNetworkMessage(ctx context.Context, address, challengeSignature string) (*vault.HashedNetworkMessage, error)
	Login(ctx context.Context, req vault.LoginRequest) (*vault.LoginResponse, error)
	Meta(ctx context.Context, address string) (*vault.MetaResponse, error)
	Logout(ctx context.Context) error
}

// KeyDeriver turns an HD key into rollup account keys.
type KeyDeriver interface {
	AccountFromEthKey(ctx context.Context, ethKey string, isLegacy bool) (*domain.KeySet, error)
}

// Manager is the single owner of the session.
type Manager struct {
	wallet wallet.Wallet
	vault  Vault
	keys   KeyDeriver
	env    config.Environment
	log    *slog.Logger

	mu      sync.RWMutex
	session domain.Session
}

func NewManager(w wallet.Wallet, v Vault, keys KeyDeriver, env config.Environment) *Manager {
	return &Manager{
		wallet: w,
		vault:  v,
		keys:   keys,
		env:    env,
		log:    slog.Default().With("component", "auth"),
	}
}

// Login runs the challenge-response handshake and derives the account keys.
// Any failure leaves the session cleared.
func (m *Manager) Login(ctx context.Context) (*domain.LoginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Clear()

	res, err := m.login(ctx)
	if err != nil {
		m.session.Clear()
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return res, nil
}

func (m *Manager) login(ctx context.Context) (*domain.LoginResult, error) {
	address := m.wallet.Address().Hex()
	provider := m.wallet.ProviderType()
	log := m.log.With("address", address, "provider", string(provider))

	networkSig, err := m.wallet.SignMessage(ctx, []byte(NetworkMessage(address)))
	if err != nil {
		return nil, authError("sign network message", err)
	}

	challenge, err := m.vault.Challenge(ctx, address, "login")
	if err != nil {
		return nil, authError("challenge", err)
	}
	challengeSig, err := m.wallet.SignMessage(ctx, []byte(challenge.Message))
	if err != nil {
		return nil, authError("sign challenge", err)
	}

	if !provider.Supported() {
		check, err := m.wallet.SignMessage(ctx, []byte(challenge.Message))
		if err != nil {
			return nil, authError("sign challenge", err)
		}
		if !bytes.Equal(check, challengeSig) {
			log.Warn("Challenge signature is not repeatable")
			m.logoutRemote(ctx)
			return nil, domain.NewError(domain.ErrUnsupportedWallet, "login", domain.MsgUnsupportedWallet, nil)
		}
	}
	challengeHex := hexutil.Encode(challengeSig)

	stored, err := m.vault.HashedNetworkMessage(ctx, address, challengeHex)
	if err != nil {
		return nil, authError("hashed network message", err)
	}
	if stored.HashedNetworkMessage != nil && *stored.HashedNetworkMessage != HashedNetworkSignature(networkSig) {
		recorded := domain.ProviderType("")
		if stored.WalletProviderType != nil {
			recorded = domain.ProviderType(*stored.WalletProviderType)
		}
		log.Warn("Network signature does not match the recorded account", "recorded_provider", string(recorded))
		m.logoutRemote(ctx)
		return nil, domain.NewError(domain.ErrAuthentication, "login", mismatchMessage(provider, recorded), nil)
	}

	resp, err := m.vault.Login(ctx, vault.LoginRequest{
		Address:            address,
		ChallengeSignature: challengeHex,
		SecuritySeed:       SecuritySeed(networkSig),
		WalletProviderType: string(provider),
	})
	if err != nil {
		return nil, authError("login", err)
	}

	keys, err := m.deriveKeys(ctx, address, networkSig, resp.HashedSignature)
	if err != nil {
		return nil, err
	}

	m.session = domain.Session{
		Address:         keys.Address,
		WalletAddress:   address,
		IsAuthenticated: true,
		KeyPair:         keys.KeyPair,
		SpendKey:        keys.SpendKey,
		SpendPublicKey:  keys.SpendPub,
		ViewKey:         keys.ViewPair,
		AccessToken:     resp.AccessToken,
	}
	log.Info("Logged in", "account", keys.Address)

	return &domain.LoginResult{
		Address:       keys.Address,
		IsLoggedIn:    true,
		Nonce:         resp.Nonce,
		EncryptionKey: EncryptionKey(networkSig, resp.Nonce),
		AccessToken:   resp.AccessToken,
	}, nil
}

func (m *Manager) deriveKeys(ctx context.Context, address string, networkSig []byte, hashedSignature string) (*domain.KeySet, error) {
	entropy, err := Entropy(networkSig, hashedSignature)
	if err != nil {
		return nil, authError("entropy", err)
	}
	hdKey, err := HDKeyFromEntropy(entropy)
	if err != nil {
		return nil, authError("hd key", err)
	}

	isLegacy := false
	if m.env != config.Mainnet {
		meta, err := m.vault.Meta(ctx, address)
		if err != nil {
			return nil, authError("wallet meta", err)
		}
		isLegacy = meta.Meta.IsLegacy
	}

	keys, err := m.keys.AccountFromEthKey(ctx, hdKey, isLegacy)
	if err != nil {
		return nil, authError("derive account", err)
	}
	return keys, nil
}

// mismatchMessage picks the user-facing text for a changed device/account pairing.
func mismatchMessage(current, recorded domain.ProviderType) string {
	switch {
	case current.IsInHouse() && !recorded.IsInHouse():
		return domain.MsgSwitchedFromOwn
	case !current.IsInHouse() && recorded.IsInHouse():
		return domain.MsgSwitchedToOwn
	default:
		// Same provider class on both sides with a different hash: the
		// account itself changed, so login is refused.
		return domain.MsgDifferentAccount
	}
}

func authError(op string, err error) error {
	return domain.NewError(domain.ErrAuthentication, op, fmt.Sprintf("%s: %v", op, err), err)
}

// PrivateKey re-verifies a fresh wallet signature before returning the key pair.
func (m *Manager) PrivateKey(ctx context.Context) (string, error) {
	m.mu.RLock()
	authenticated, walletAddr := m.session.IsAuthenticated, m.session.WalletAddress
	m.mu.RUnlock()
	if !authenticated {
		return "", domain.NotLoggedIn("private key")
	}

	addr := m.wallet.Address()
	if addr.Hex() != walletAddr {
		return "", domain.NewError(domain.ErrAuthentication, "private key", "Signature is wrong", nil)
	}
	msg := []byte(NetworkMessage(walletAddr))
	sig, err := m.wallet.SignMessage(ctx, msg)
	if err != nil || !wallet.VerifyMessage(addr, msg, sig) {
		return "", domain.NewError(domain.ErrAuthentication, "private key", "Signature is wrong", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.session.IsAuthenticated {
		return "", domain.NotLoggedIn("private key")
	}
	return m.session.KeyPair, nil
}

// SpendKey returns the spend key for message signing. It requires login.
func (m *Manager) SpendKey() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.session.IsAuthenticated {
		return "", domain.NotLoggedIn("spend key")
	}
	return m.session.SpendKey, nil
}

// View returns a read-only snapshot of the session.
func (m *Manager) View() domain.SessionView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.View()
}

// IsLoggedIn reports whether a session is established.
func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.IsAuthenticated
}

// MarkSynced records a completed balance sync.
func (m *Manager) MarkSynced(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.IsAuthenticated {
		m.session.LastSyncedAt = at
	}
}

// Logout zeroes the session and notifies the vault. It is safe to call repeatedly.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.session.Clear()
	m.mu.Unlock()
	m.logoutRemote(ctx)
}

func (m *Manager) logoutRemote(ctx context.Context) {
	if err := m.vault.Logout(ctx); err != nil {
		m.log.Warn("Vault logout failed", "error", err)
	}
}

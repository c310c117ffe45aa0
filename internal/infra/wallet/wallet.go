// Package wallet provides the settlement-chain signer the client logs in with.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Wallet signs login messages and settlement-chain transactions.
type Wallet interface {
	Address() common.Address
	ProviderType() domain.ProviderType
	// SignMessage returns an EIP-191 personal signature (65 bytes, v in {27,28}).
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// LocalWallet holds a raw secp256k1 key in memory.
type LocalWallet struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	provider domain.ProviderType
}

var _ Wallet = (*LocalWallet)(nil)

// NewLocalWallet parses a hex private key, with or without 0x prefix.
func NewLocalWallet(hexKey string, provider domain.ProviderType) (*LocalWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse wallet key: %w", err)
	}
	if provider == "" {
		provider = domain.ProviderMetamask
	}
	return &LocalWallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		provider: provider.Normalize(),
	}, nil
}

func (w *LocalWallet) Address() common.Address {
	return w.address
}

func (w *LocalWallet) ProviderType() domain.ProviderType {
	return w.provider
}

func (w *LocalWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(accounts.TextHash(message), w.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (w *LocalWallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}

// RecoverAddress returns the signer of an EIP-191 personal signature.
func RecoverAddress(message, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	s := make([]byte, len(sig))
	copy(s, sig)
	if s[crypto.RecoveryIDOffset] >= 27 {
		s[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(message), s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyMessage reports whether sig over message was produced by address.
func VerifyMessage(address common.Address, message, sig []byte) bool {
	got, err := RecoverAddress(message, sig)
	return err == nil && got == address
}

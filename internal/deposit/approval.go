package deposit

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/chain/evm"
)

// Approver reads and grants token approvals.
type Approver interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	IsApprovedForAll(ctx context.Context, token, owner, operator common.Address) (bool, error)
	Approve(ctx context.Context, signer evm.Signer, token, spender common.Address, amount *big.Int) (common.Hash, error)
	SetApprovalForAll(ctx context.Context, signer evm.Signer, token, operator common.Address) (common.Hash, error)
}

// ReceiptWaiter blocks until a transaction is mined.
type ReceiptWaiter interface {
	Wait(ctx context.Context, hash common.Hash) (domain.TransactionStatus, *types.Receipt, error)
}

// ApprovalManager grants the liquidity contract access to the depositor's
// tokens, and only when the current approval is insufficient.
type ApprovalManager struct {
	chain    Approver
	receipts ReceiptWaiter
	signer   evm.Signer
	spender  common.Address
	log      *slog.Logger
}

func NewApprovalManager(chain Approver, receipts ReceiptWaiter, signer evm.Signer, spender common.Address) *ApprovalManager {
	return &ApprovalManager{
		chain:    chain,
		receipts: receipts,
		signer:   signer,
		spender:  spender,
		log:      slog.Default().With("component", "approval"),
	}
}

// Ensure makes sure spec can be deposited. It reports whether an approval
// transaction was sent. Errors are returned unchanged.
func (m *ApprovalManager) Ensure(ctx context.Context, spec *domain.DepositSpec) (bool, error) {
	token := common.HexToAddress(spec.TokenAddress)
	owner := m.signer.Address()

	var hash common.Hash
	switch {
	case spec.TokenType == domain.TokenTypeERC20:
		allowance, err := m.chain.Allowance(ctx, token, owner, m.spender)
		if err != nil {
			m.log.Error("Allowance check failed", "token", token.Hex(), "error", err)
			return false, err
		}
		if allowance.Cmp(spec.Amount) >= 0 {
			return false, nil
		}
		hash, err = m.chain.Approve(ctx, m.signer, token, m.spender, spec.Amount)
		if err != nil {
			m.log.Error("Approval failed", "token", token.Hex(), "error", err)
			return false, err
		}
	case spec.TokenType.IsNFT():
		approved, err := m.chain.IsApprovedForAll(ctx, token, owner, m.spender)
		if err != nil {
			m.log.Error("Operator approval check failed", "token", token.Hex(), "error", err)
			return false, err
		}
		if approved {
			return false, nil
		}
		hash, err = m.chain.SetApprovalForAll(ctx, m.signer, token, m.spender)
		if err != nil {
			m.log.Error("Approval failed", "token", token.Hex(), "error", err)
			return false, err
		}
	default:
		return false, nil
	}

	status, _, err := m.receipts.Wait(ctx, hash)
	if err != nil {
		m.log.Error("Approval confirmation failed", "hash", hash.Hex(), "error", err)
		return true, err
	}
	if status != domain.TxStatusCompleted {
		return true, domain.NewError(domain.ErrApproval, "approve", "Approval transaction rejected", nil)
	}
	m.log.Info("Approval confirmed", "token", token.Hex(), "hash", hash.Hex())
	return true, nil
}

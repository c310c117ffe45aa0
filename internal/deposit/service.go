package deposit

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/chain/evm"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/prover"
	"github.com/bertankofon/intmax2-client-sdk/internal/metrics"
)

// Chain is the settlement-chain surface a deposit needs.
type Chain interface {
	Approver
	Decimals(ctx context.Context, token common.Address) (uint8, error)
	PackDeposit(spec domain.DepositSpec) ([]byte, *big.Int, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	Transact(ctx context.Context, signer evm.Signer, to common.Address, data []byte, value *big.Int) (common.Hash, error)
	LiquidityContract() common.Address
}

// Preparer binds a deposit to its rollup recipient.
type Preparer interface {
	PrepareDeposit(ctx context.Context, req prover.PrepareDepositRequest) (*domain.DepositPreparation, error)
}

type Service struct {
	chain     Chain
	prover    Preparer
	gate      *ComplianceGate
	approvals *ApprovalManager
	receipts  ReceiptWaiter
	signer    evm.Signer
	log       *slog.Logger
}

func NewService(c Chain, p Preparer, gate *ComplianceGate, receipts ReceiptWaiter, signer evm.Signer) *Service {
	return &Service{
		chain:     c,
		prover:    p,
		gate:      gate,
		approvals: NewApprovalManager(c, receipts, signer, c.LiquidityContract()),
		receipts:  receipts,
		signer:    signer,
		log:       slog.Default().With("component", "deposit"),
	}
}

// Deposit prepares, approves and submits req, then waits for the receipt.
// On a confirmation timeout the result is returned with a processing status.
func (s *Service) Deposit(ctx context.Context, req domain.DepositRequest) (*domain.DepositResult, error) {
	log := s.log.With("run_id", uuid.NewString(), "token_type", req.Token.TokenType.String())

	spec, err := s.Prepare(ctx, req, false)
	if err != nil {
		metrics.DepositsTotal.WithLabelValues(req.Token.TokenType.String(), "failed").Inc()
		return nil, err
	}
	if _, err := s.approvals.Ensure(ctx, spec); err != nil {
		metrics.DepositsTotal.WithLabelValues(req.Token.TokenType.String(), "failed").Inc()
		return nil, err
	}

	data, value, err := s.chain.PackDeposit(*spec)
	if err != nil {
		return nil, err
	}
	hash, err := s.chain.Transact(ctx, s.signer, s.chain.LiquidityContract(), data, value)
	if err != nil {
		log.Error("Deposit transaction failed", "error", err)
		metrics.DepositsTotal.WithLabelValues(req.Token.TokenType.String(), "failed").Inc()
		return nil, fmt.Errorf("send deposit: %w", err)
	}
	log.Info("Deposit sent", "hash", hash.Hex(), "amount", spec.Amount.String())

	status, _, err := s.receipts.Wait(ctx, hash)
	res := &domain.DepositResult{TxHash: hash.Hex(), Status: status}
	if err != nil {
		res.Status = domain.TxStatusProcessing
		metrics.DepositsTotal.WithLabelValues(req.Token.TokenType.String(), string(res.Status)).Inc()
		return res, err
	}
	metrics.DepositsTotal.WithLabelValues(req.Token.TokenType.String(), string(status)).Inc()
	log.Info("Deposit confirmed", "hash", hash.Hex(), "status", status)
	return res, nil
}

// EstimateGas returns estimated gas times gas price, in wei, for req. It
// never uses a real recipient salt.
func (s *Service) EstimateGas(ctx context.Context, req domain.DepositRequest) (*big.Int, error) {
	spec, err := s.Prepare(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if req.EnsureApproval {
		if _, err := s.approvals.Ensure(ctx, spec); err != nil {
			return nil, err
		}
	}
	data, value, err := s.chain.PackDeposit(*spec)
	if err != nil {
		return nil, err
	}
	gas, err := s.chain.EstimateGas(ctx, s.signer.Address(), s.chain.LiquidityContract(), data, value)
	if err != nil {
		return nil, err
	}
	price, err := s.chain.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(price, new(big.Int).SetUint64(gas)), nil
}

// Prepare builds the deposit spec: amounts in base units, the recipient
// salt hash and the AML permission.
func (s *Service) Prepare(ctx context.Context, req domain.DepositRequest, isEstimation bool) (*domain.DepositSpec, error) {
	if req.Recipient == "" {
		return nil, errors.New("deposit: recipient is required")
	}
	if common.IsHexAddress(req.Recipient) {
		return nil, domain.NewError(domain.ErrInvalidTransferAddress, "deposit", "Invalid deposit recipient", nil)
	}
	spec, err := s.amounts(ctx, req.Token, req.Amount)
	if err != nil {
		return nil, err
	}

	if isEstimation {
		if _, err := rand.Read(spec.RecipientSaltHash[:]); err != nil {
			return nil, fmt.Errorf("estimation salt: %w", err)
		}
	} else {
		prep, err := s.prover.PrepareDeposit(ctx, prover.PrepareDepositRequest{
			Depositor:    s.signer.Address().Hex(),
			Recipient:    req.Recipient,
			Amount:       spec.Amount.String(),
			TokenType:    spec.TokenType,
			TokenAddress: spec.TokenAddress,
			TokenID:      spec.TokenID.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("prepare deposit: %w", err)
		}
		salt, err := hexutil.Decode(prep.SaltHash)
		if err != nil || len(salt) != 32 {
			return nil, fmt.Errorf("prepare deposit: invalid salt hash %q", prep.SaltHash)
		}
		copy(spec.RecipientSaltHash[:], salt)
	}

	perm, err := s.gate.Attest(ctx, s.signer.Address(), spec)
	if err != nil {
		return nil, err
	}
	spec.AMLPermission = perm
	spec.EligibilityPermission = []byte{}
	return spec, nil
}

func (s *Service) amounts(ctx context.Context, token domain.Token, amount string) (*domain.DepositSpec, error) {
	spec := &domain.DepositSpec{
		TokenType:    token.TokenType,
		TokenAddress: token.ContractAddress,
		TokenIndex:   token.TokenIndex,
		TokenID:      new(big.Int),
	}
	if token.TokenType != domain.TokenTypeNative && !common.IsHexAddress(token.ContractAddress) {
		return nil, fmt.Errorf("deposit: invalid token address %q", token.ContractAddress)
	}
	if token.TokenType.IsNFT() {
		id, ok := new(big.Int).SetString(tokenID(token), 10)
		if !ok {
			return nil, fmt.Errorf("%w: token id %q", domain.ErrInvalidAmount, token.TokenID)
		}
		spec.TokenID = id
	}

	var err error
	switch token.TokenType {
	case domain.TokenTypeNative:
		spec.TokenAddress = common.Address{}.Hex()
		spec.Amount, err = domain.ParseUnits(amount, domain.NativeDecimals)
	case domain.TokenTypeERC20:
		decimals := domain.NativeDecimals
		if token.Decimals != nil {
			decimals = *token.Decimals
		} else {
			d, derr := s.chain.Decimals(ctx, common.HexToAddress(token.ContractAddress))
			if derr != nil {
				return nil, derr
			}
			decimals = int(d)
		}
		spec.Amount, err = domain.ParseUnits(amount, decimals)
	case domain.TokenTypeERC721:
		spec.Amount = new(big.Int).Set(spec.TokenID)
	case domain.TokenTypeERC1155:
		spec.Amount, err = domain.ParseUnits(amount, 0)
	default:
		return nil, fmt.Errorf("deposit: unsupported token type %d", token.TokenType)
	}
	if err != nil {
		return nil, err
	}
	if token.TokenType != domain.TokenTypeERC721 && spec.Amount.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero deposit", domain.ErrInvalidAmount)
	}
	return spec, nil
}

func tokenID(t domain.Token) string {
	if t.TokenID != "" {
		return t.TokenID
	}
	return strconv.FormatUint(uint64(t.TokenIndex), 10)
}

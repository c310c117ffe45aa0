// Package deposit prepares and submits deposits into the liquidity contract.
package deposit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bertankofon/intmax2-client-sdk/internal/core/domain"
	"github.com/bertankofon/intmax2-client-sdk/internal/infra/predicate"
)

// Evaluator requests compliance attestations.
type Evaluator interface {
	Evaluate(ctx context.Context, req predicate.Request) (*predicate.Attestation, error)
}

// ComplianceGate turns a deposit into an AML permission blob.
// A non-compliant verdict is final.
type ComplianceGate struct {
	evaluator Evaluator
	contract  common.Address
	log       *slog.Logger
}

func NewComplianceGate(e Evaluator, predicateContract common.Address) *ComplianceGate {
	return &ComplianceGate{
		evaluator: e,
		contract:  predicateContract,
		log:       slog.Default().With("component", "compliance"),
	}
}

// Attest evaluates the deposit described by spec, sent from depositor.
func (g *ComplianceGate) Attest(ctx context.Context, depositor common.Address, spec *domain.DepositSpec) ([]byte, error) {
	body, err := predicate.EncodeBody(predicate.BodyParams{
		RecipientSaltHash: spec.RecipientSaltHash,
		TokenType:         uint8(spec.TokenType),
		Amount:            spec.Amount,
		TokenAddress:      common.HexToAddress(spec.TokenAddress),
		TokenID:           spec.TokenID,
	})
	if err != nil {
		return nil, err
	}

	msgValue := "0"
	if spec.TokenType == domain.TokenTypeNative && spec.Amount != nil {
		msgValue = spec.Amount.String()
	}
	att, err := g.evaluator.Evaluate(ctx, predicate.Request{
		From:     depositor.Hex(),
		To:       g.contract.Hex(),
		Data:     body,
		MsgValue: msgValue,
	})
	if err != nil {
		return nil, fmt.Errorf("compliance check: %w", err)
	}
	if !att.IsCompliant {
		g.log.Warn("Deposit rejected by compliance check", "depositor", depositor.Hex(), "task_id", att.TaskID)
		return nil, domain.NewError(domain.ErrAMLCheckFailed, "deposit", domain.MsgAMLFailed, nil)
	}
	return predicate.EncodePermission(att)
}

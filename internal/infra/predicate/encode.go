package predicate

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func mustType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(fmt.Sprintf("invalid type: %s: %v", t, err))
	}
	return typ
}

var (
	bodyArgs = abi.Arguments{
		{Name: "recipientSaltHash", Type: mustType("bytes32", nil)},
		{Name: "tokenType", Type: mustType("uint8", nil)},
		{Name: "amount", Type: mustType("uint256", nil)},
		{Name: "tokenAddress", Type: mustType("address", nil)},
		{Name: "tokenId", Type: mustType("uint256", nil)},
	}

	permissionArgs = abi.Arguments{
		{Type: mustType("tuple", []abi.ArgumentMarshaling{
			{Name: "taskId", Type: "string"},
			{Name: "expireByBlockNumber", Type: "uint256"},
			{Name: "signerAddresses", Type: "address[]"},
			{Name: "signatures", Type: "bytes[]"},
		})},
	}
)

// BodyParams describes the deposit being evaluated.
type BodyParams struct {
	RecipientSaltHash [32]byte
	TokenType         uint8
	Amount            *big.Int
	TokenAddress      common.Address
	TokenID           *big.Int
}

// EncodeBody ABI-encodes the deposit into the request data field.
func EncodeBody(p BodyParams) (string, error) {
	amount, tokenID := p.Amount, p.TokenID
	if amount == nil {
		amount = new(big.Int)
	}
	if tokenID == nil {
		tokenID = new(big.Int)
	}
	data, err := bodyArgs.Pack(p.RecipientSaltHash, p.TokenType, amount, p.TokenAddress, tokenID)
	if err != nil {
		return "", fmt.Errorf("encode predicate body: %w", err)
	}
	return hexutil.Encode(data), nil
}

// permission mirrors the on-chain PredicateMessage struct.
type permission struct {
	TaskId              string
	ExpireByBlockNumber *big.Int
	SignerAddresses     []common.Address
	Signatures          [][]byte
}

// EncodePermission turns an attestation into the AML permission blob passed
// to the deposit entry points.
func EncodePermission(a *Attestation) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("encode permission: nil attestation")
	}
	if len(a.Signers) != len(a.Signature) {
		return nil, fmt.Errorf("encode permission: %d signers for %d signatures", len(a.Signers), len(a.Signature))
	}

	msg := permission{
		TaskId:              a.TaskID,
		ExpireByBlockNumber: new(big.Int).SetUint64(a.ExpiryBlock),
		SignerAddresses:     make([]common.Address, len(a.Signers)),
		Signatures:          make([][]byte, len(a.Signature)),
	}
	for i, s := range a.Signers {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("encode permission: invalid signer %q", s)
		}
		msg.SignerAddresses[i] = common.HexToAddress(s)
	}
	for i, s := range a.Signature {
		sig, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("encode permission: signature %d: %w", i, err)
		}
		msg.Signatures[i] = sig
	}

	out, err := permissionArgs.Pack(msg)
	if err != nil {
		return nil, fmt.Errorf("encode permission: %w", err)
	}
	return out, nil
}

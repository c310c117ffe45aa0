package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Multicall3Address is the canonical Multicall3 deployment, identical on every chain.
var Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

const erc20ABIJSON = `[
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// Shared by ERC721 and ERC1155; both expose the same operator approval surface.
const nftABIJSON = `[
	{"type":"function","name":"isApprovedForAll","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]}
]`

const liquidityABIJSON = `[
	{"type":"function","name":"depositNativeToken","stateMutability":"payable","inputs":[{"name":"recipientSaltHash","type":"bytes32"},{"name":"amlPermission","type":"bytes"},{"name":"eligibilityPermission","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"depositERC20","stateMutability":"nonpayable","inputs":[{"name":"tokenAddress","type":"address"},{"name":"recipientSaltHash","type":"bytes32"},{"name":"amount","type":"uint256"},{"name":"amlPermission","type":"bytes"},{"name":"eligibilityPermission","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"depositERC721","stateMutability":"nonpayable","inputs":[{"name":"tokenAddress","type":"address"},{"name":"recipientSaltHash","type":"bytes32"},{"name":"tokenId","type":"uint256"},{"name":"amlPermission","type":"bytes"},{"name":"eligibilityPermission","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"depositERC1155","stateMutability":"nonpayable","inputs":[{"name":"tokenAddress","type":"address"},{"name":"recipientSaltHash","type":"bytes32"},{"name":"tokenId","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"amlPermission","type":"bytes"},{"name":"eligibilityPermission","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"claimWithdrawals","stateMutability":"nonpayable","inputs":[{"name":"withdrawals","type":"tuple[]","components":[{"name":"recipient","type":"address"},{"name":"tokenIndex","type":"uint32"},{"name":"amount","type":"uint256"},{"name":"nullifier","type":"bytes32"}]}],"outputs":[]},
	{"type":"function","name":"claimableWithdrawals","stateMutability":"view","inputs":[{"name":"withdrawalHash","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const multicall3ABIJSON = `[
	{"type":"function","name":"aggregate3","stateMutability":"payable","inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}]}],"outputs":[{"name":"returnData","type":"tuple[]","components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}]}]}
]`

var (
	erc20ABI      = mustParse(erc20ABIJSON)
	nftABI        = mustParse(nftABIJSON)
	liquidityABI  = mustParse(liquidityABIJSON)
	multicall3ABI = mustParse(multicall3ABIJSON)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

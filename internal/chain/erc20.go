package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Minimal ERC-20 fragment: the two methods this service calls.
const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// EntryPoint nonce accessor (ERC-4337 v0.6).
const entryPointABIJSON = `[
	{"inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"name":"getNonce","outputs":[{"name":"nonce","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	erc20ABI      = mustParseABI(erc20ABIJSON)
	entryPointABI = mustParseABI(entryPointABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("invalid embedded ABI: " + err.Error())
	}
	return parsed
}

// PackBalanceOf builds balanceOf(account) calldata.
func PackBalanceOf(account common.Address) ([]byte, error) {
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack balanceOf")
	}
	return data, nil
}

// PackERC20Transfer builds transfer(recipient, amount) calldata for routing a
// token transfer through a smart account's execute path.
func PackERC20Transfer(recipient common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", recipient, amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack transfer")
	}
	return data, nil
}

func packGetNonce(sender common.Address) ([]byte, error) {
	data, err := entryPointABI.Pack("getNonce", sender, big.NewInt(0))
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack getNonce")
	}
	return data, nil
}

func unpackUint256(method string, parsed abi.ABI, output []byte) (*big.Int, error) {
	values, err := parsed.Unpack(method, output)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s result", method)
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected %s result type %T", method, values[0])
	}
	return value, nil
}

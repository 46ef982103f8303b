package dispatch

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// execute(address,uint256,bytes) on the account implementation: the single
// entry through which both native and token transfers are routed.
var (
	executeSelector = crypto.Keccak256([]byte("execute(address,uint256,bytes)"))[:4]
	executeArgs     = abi.Arguments{
		{Type: mustNewType("address")},
		{Type: mustNewType("uint256")},
		{Type: mustNewType("bytes")},
	}
)

func mustNewType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic("invalid abi type " + name + ": " + err.Error())
	}
	return t
}

// createAccount(address,uint256) on the account factory. Prefixed with the
// factory address it forms the initCode that deploys the account on its
// first operation.
var (
	createAccountSelector = crypto.Keccak256([]byte("createAccount(address,uint256)"))[:4]
	createAccountArgs     = abi.Arguments{
		{Type: mustNewType("address")},
		{Type: mustNewType("uint256")},
	}
)

// packInitCode builds factory ++ createAccount(owner, index) for an account
// that has no on-chain code yet. The factory must resolve the same address
// the counterfactual derivation produced, or the entry point rejects the
// operation.
func packInitCode(factory, owner common.Address, index uint64) ([]byte, error) {
	packed, err := createAccountArgs.Pack(owner, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack createAccount calldata")
	}

	initCode := make([]byte, 0, common.AddressLength+len(createAccountSelector)+len(packed))
	initCode = append(initCode, factory.Bytes()...)
	initCode = append(initCode, createAccountSelector...)
	return append(initCode, packed...), nil
}

// packExecute builds execute(target, value, data) calldata for the account.
func packExecute(target common.Address, value *big.Int, data []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if data == nil {
		data = []byte{}
	}

	packed, err := executeArgs.Pack(target, value, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack execute calldata")
	}
	return append(append([]byte{}, executeSelector...), packed...), nil
}

package bundler

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation is a delegated account operation in the v0.6 wire format.
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

var (
	addressType = mustNewType("address")
	uint256Type = mustNewType("uint256")
	bytes32Type = mustNewType("bytes32")

	packedOpArgs = abi.Arguments{
		{Type: addressType}, // sender
		{Type: uint256Type}, // nonce
		{Type: bytes32Type}, // keccak(initCode)
		{Type: bytes32Type}, // keccak(callData)
		{Type: uint256Type}, // callGasLimit
		{Type: uint256Type}, // verificationGasLimit
		{Type: uint256Type}, // preVerificationGas
		{Type: uint256Type}, // maxFeePerGas
		{Type: uint256Type}, // maxPriorityFeePerGas
		{Type: bytes32Type}, // keccak(paymasterAndData)
	}

	hashArgs = abi.Arguments{
		{Type: bytes32Type}, // keccak(packed op)
		{Type: addressType}, // entry point
		{Type: uint256Type}, // chain id
	}
)

func mustNewType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic("invalid abi type " + name + ": " + err.Error())
	}
	return t
}

// Hash computes the digest the account validator checks: the packed
// operation bound to the entry point and chain, so a signature cannot be
// replayed across networks or entry points. The signature field itself is
// excluded.
func (op *UserOperation) Hash(entryPoint common.Address, chainID uint64) (common.Hash, error) {
	packed, err := packedOpArgs.Pack(
		op.Sender,
		orZero(op.Nonce),
		common.BytesToHash(crypto.Keccak256(op.InitCode)),
		common.BytesToHash(crypto.Keccak256(op.CallData)),
		orZero(op.CallGasLimit),
		orZero(op.VerificationGasLimit),
		orZero(op.PreVerificationGas),
		orZero(op.MaxFeePerGas),
		orZero(op.MaxPriorityFeePerGas),
		common.BytesToHash(crypto.Keccak256(op.PaymasterAndData)),
	)
	if err != nil {
		return common.Hash{}, err
	}

	outer, err := hashArgs.Pack(
		crypto.Keccak256Hash(packed),
		entryPoint,
		new(big.Int).SetUint64(chainID),
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(outer), nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// userOpJSON is the camelCase hex encoding bundler RPCs expect.
type userOpJSON struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

// MarshalJSON implements json.Marshaler.
func (op *UserOperation) MarshalJSON() ([]byte, error) {
	return json.Marshal(&userOpJSON{
		Sender:               op.Sender,
		Nonce:                (*hexutil.Big)(orZero(op.Nonce)),
		InitCode:             op.InitCode,
		CallData:             op.CallData,
		CallGasLimit:         (*hexutil.Big)(orZero(op.CallGasLimit)),
		VerificationGasLimit: (*hexutil.Big)(orZero(op.VerificationGasLimit)),
		PreVerificationGas:   (*hexutil.Big)(orZero(op.PreVerificationGas)),
		MaxFeePerGas:         (*hexutil.Big)(orZero(op.MaxFeePerGas)),
		MaxPriorityFeePerGas: (*hexutil.Big)(orZero(op.MaxPriorityFeePerGas)),
		PaymasterAndData:     op.PaymasterAndData,
		Signature:            op.Signature,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (op *UserOperation) UnmarshalJSON(data []byte) error {
	var raw userOpJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	op.Sender = raw.Sender
	op.Nonce = (*big.Int)(raw.Nonce)
	op.InitCode = raw.InitCode
	op.CallData = raw.CallData
	op.CallGasLimit = (*big.Int)(raw.CallGasLimit)
	op.VerificationGasLimit = (*big.Int)(raw.VerificationGasLimit)
	op.PreVerificationGas = (*big.Int)(raw.PreVerificationGas)
	op.MaxFeePerGas = (*big.Int)(raw.MaxFeePerGas)
	op.MaxPriorityFeePerGas = (*big.Int)(raw.MaxPriorityFeePerGas)
	op.PaymasterAndData = raw.PaymasterAndData
	op.Signature = raw.Signature
	return nil
}

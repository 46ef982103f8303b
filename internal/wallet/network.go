package wallet

import (
	"github.com/ethereum/go-ethereum/common"
)

// Network describes one EVM network and the smart-account deployment
// constants used to derive counterfactual addresses on it.
type Network struct {
	Name       string
	ChainID    uint64
	EntryPoint common.Address
	Factory    common.Address

	// Version selects the account implementation used for new derivations;
	// Implementations maps every known version to its implementation contract.
	Version         string
	Implementations map[string]common.Address
}

// SmartAccount is a derived smart-account identity. It is never stored as a
// source of truth: it is always recomputable from the owner key, the account
// index and the network constants.
type SmartAccount struct {
	Address common.Address
	Owner   common.Address
	Index   uint64
	Network string
}

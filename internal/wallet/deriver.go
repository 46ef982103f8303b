package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/logger"
)

// ChainProber is the read-only probe the deriver uses to confirm it is
// talking to the configured network. A nil prober derives fully offline.
type ChainProber interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// ERC-1167 minimal proxy creation code, split around the implementation
// address. The account factory deploys one of these per account.
var (
	proxyCodePrefix = hexutil.MustDecode("0x3d602d80600a3d3981f3363d3d373d3d3d363d73")
	proxyCodeSuffix = hexutil.MustDecode("0x5af43d82803e903d91602b57fd5bf3")
)

// Deriver computes counterfactual smart-account addresses. Derivation is a
// pure function of (owner, index, network constants); the only side effect is
// an optional read-only chain-ID probe.
type Deriver struct {
	net    Network
	prober ChainProber
	logger *zap.Logger
}

// NewDeriver creates a deriver for the given network. prober may be nil.
func NewDeriver(net Network, prober ChainProber) *Deriver {
	return &Deriver{
		net:    net,
		prober: prober,
		logger: logger.Log,
	}
}

// Network returns the network constants this deriver was built with.
func (d *Deriver) Network() Network {
	return d.net
}

// Derive computes the smart-account address controlled by owner at the given
// account index. Two calls with identical inputs always produce the same
// address; restoration depends on this.
func (d *Deriver) Derive(ctx context.Context, owner common.Address, index uint64) (SmartAccount, error) {
	impl, ok := d.net.Implementations[d.net.Version]
	if !ok {
		return SmartAccount{}, errors.Wrapf(ErrUnsupportedVersion, "version %q", d.net.Version)
	}

	if d.prober != nil {
		chainID, err := d.prober.ChainID(ctx)
		if err != nil {
			return SmartAccount{}, errors.Wrapf(ErrNetworkUnavailable, "chain id probe failed: %v", err)
		}
		if chainID.Uint64() != d.net.ChainID {
			return SmartAccount{}, errors.Wrapf(ErrNetworkUnavailable,
				"connected to chain %d, expected %d", chainID.Uint64(), d.net.ChainID)
		}
	}

	address := counterfactualAddress(d.net.Factory, impl, owner, index)

	d.logger.Debug("Derived smart account",
		zap.String("owner", owner.Hex()),
		zap.Uint64("account_index", index),
		zap.String("address", address.Hex()),
		zap.String("network", d.net.Name))

	return SmartAccount{
		Address: address,
		Owner:   owner,
		Index:   index,
		Network: d.net.Name,
	}, nil
}

// counterfactualAddress computes CREATE2(factory, salt(owner, index),
// keccak(proxyCode(impl))). The salt binds the owner and the account index;
// the session key deliberately plays no part, which is what lets an owner
// view and a session view resolve to the same account.
func counterfactualAddress(factory, impl, owner common.Address, index uint64) common.Address {
	indexWord := common.BigToHash(new(big.Int).SetUint64(index))
	salt := crypto.Keccak256Hash(owner.Bytes(), indexWord.Bytes())

	initCode := make([]byte, 0, len(proxyCodePrefix)+common.AddressLength+len(proxyCodeSuffix))
	initCode = append(initCode, proxyCodePrefix...)
	initCode = append(initCode, impl.Bytes()...)
	initCode = append(initCode, proxyCodeSuffix...)

	return crypto.CreateAddress2(factory, [32]byte(salt), crypto.Keccak256(initCode))
}

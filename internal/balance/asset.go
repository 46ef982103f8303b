package balance

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Asset identifies a fungible asset on the configured network: either the
// native unit or an ERC-20 token contract.
type Asset struct {
	Symbol   string
	Token    common.Address
	Native   bool
	Decimals int32
}

// NativeAsset builds the network's native asset descriptor.
func NativeAsset(symbol string, decimals int32) Asset {
	return Asset{Symbol: strings.ToUpper(symbol), Native: true, Decimals: decimals}
}

// TokenAsset builds an ERC-20 asset descriptor.
func TokenAsset(symbol string, token common.Address, decimals int32) Asset {
	return Asset{Symbol: strings.ToUpper(symbol), Token: token, Decimals: decimals}
}

// Registry resolves asset symbols for the balance and transfer endpoints.
type Registry struct {
	native Asset
	tokens map[string]Asset
	order  []string
}

// NewRegistry builds a registry from the native asset and the configured
// token list. Token order is preserved for stable API responses.
func NewRegistry(native Asset, tokens []Asset) *Registry {
	r := &Registry{
		native: native,
		tokens: make(map[string]Asset, len(tokens)),
	}
	for _, t := range tokens {
		if _, ok := r.tokens[t.Symbol]; ok {
			continue
		}
		r.tokens[t.Symbol] = t
		r.order = append(r.order, t.Symbol)
	}
	return r
}

// Native returns the native asset.
func (r *Registry) Native() Asset {
	return r.native
}

// Tokens returns the configured token assets in configuration order.
func (r *Registry) Tokens() []Asset {
	out := make([]Asset, 0, len(r.order))
	for _, symbol := range r.order {
		out = append(out, r.tokens[symbol])
	}
	return out
}

// Resolve maps a symbol to an asset. The empty string and the native symbol
// both resolve to the native asset.
func (r *Registry) Resolve(symbol string) (Asset, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || symbol == r.native.Symbol {
		return r.native, true
	}
	asset, ok := r.tokens[symbol]
	return asset, ok
}

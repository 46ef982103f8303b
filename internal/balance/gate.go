// Package balance reads on-chain balances and authorizes transfers against
// them. Read path only; a transfer submitted elsewhere is not guaranteed to
// be reflected in an immediately following read.
package balance

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/chain"
	"github.com/lumenpay/wallet-api/internal/logger"
)

var (
	// ErrInsufficientBalance means the balance does not cover the requested
	// amount. Blocks the action; not retryable with the same amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceUnavailable means the balance could not be read right now.
	// Retryable; must never be conflated with ErrInsufficientBalance.
	ErrBalanceUnavailable = errors.New("balance unavailable")
)

var (
	// MaxNumOfFailingRequests ...
	MaxNumOfFailingRequests = 10
	// FailingRatio ...
	FailingRatio = 0.6
)

// newCircuitBreaker returns a breaker that trips once the overall number of
// failing balance reads reaches MaxNumOfFailingRequests and the failing
// ratio has met FailingRatio.
func newCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "balance-reads",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
	})
}

// Gate reads balances and authorizes requested amounts against them.
type Gate struct {
	reader  chain.Reader
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewGate creates a balance gate over the given chain reader.
func NewGate(reader chain.Reader) *Gate {
	return &Gate{
		reader:  reader,
		breaker: newCircuitBreaker(),
		logger:  logger.Log,
	}
}

// Balance returns the account's balance of the asset in base units. Any read
// failure, including an open circuit breaker, surfaces ErrBalanceUnavailable.
func (g *Gate) Balance(ctx context.Context, account common.Address, asset Asset) (*big.Int, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		if asset.Native {
			return g.reader.NativeBalance(ctx, account)
		}
		return g.reader.TokenBalance(ctx, asset.Token, account)
	})
	if err != nil {
		g.logger.Warn("Balance read failed",
			zap.String("account", account.Hex()),
			zap.String("asset", asset.Symbol),
			zap.Error(err))
		return nil, pkgerrors.Wrapf(ErrBalanceUnavailable, "%s: %v", asset.Symbol, err)
	}
	return result.(*big.Int), nil
}

// Authorize approves the requested amount only if the current balance covers
// it. A failed read propagates as ErrBalanceUnavailable so the caller can
// retry instead of treating it as a hard stop.
func (g *Gate) Authorize(ctx context.Context, account common.Address, asset Asset, requested *big.Int) error {
	if requested == nil || requested.Sign() <= 0 {
		return pkgerrors.Errorf("requested amount must be positive")
	}

	current, err := g.Balance(ctx, account, asset)
	if err != nil {
		return err
	}

	if current.Cmp(requested) < 0 {
		return pkgerrors.Wrapf(ErrInsufficientBalance,
			"%s: have %s, requested %s", asset.Symbol, current.String(), requested.String())
	}
	return nil
}

// Display converts a base-unit amount to its human-readable decimal form
// scaled by the asset's decimals.
func Display(asset Asset, amount *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(amount, -asset.Decimals)
}

// ParseAmount converts a human-readable decimal amount into base units,
// rejecting values with more fractional digits than the asset carries.
func ParseAmount(asset Asset, value string) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "invalid amount %q", value)
	}
	scaled := d.Shift(asset.Decimals)
	if !scaled.IsInteger() {
		return nil, pkgerrors.Errorf("amount %s has more than %d decimal places", value, asset.Decimals)
	}
	return scaled.BigInt(), nil
}

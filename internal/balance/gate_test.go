package balance

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay/wallet-api/internal/testutil"
)

var (
	testAccount = common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C")
	usdcToken   = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
)

func usdc() Asset {
	return TokenAsset("USDC", usdcToken, 6)
}

func TestAuthorizeApprovesCoveredAmount(t *testing.T) {
	reader := new(testutil.MockChainReader)
	reader.On("TokenBalance", mock.Anything, usdcToken, testAccount).
		Return(big.NewInt(10_000_000), nil)

	gate := NewGate(reader)
	err := gate.Authorize(context.Background(), testAccount, usdc(), big.NewInt(5_000_000))

	assert.NoError(t, err)
	reader.AssertExpectations(t)
}

func TestAuthorizeApprovesExactAmount(t *testing.T) {
	reader := new(testutil.MockChainReader)
	reader.On("TokenBalance", mock.Anything, usdcToken, testAccount).
		Return(big.NewInt(5_000_000), nil)

	gate := NewGate(reader)
	err := gate.Authorize(context.Background(), testAccount, usdc(), big.NewInt(5_000_000))

	assert.NoError(t, err)
}

func TestAuthorizeRejectsUncoveredAmount(t *testing.T) {
	reader := new(testutil.MockChainReader)
	reader.On("TokenBalance", mock.Anything, usdcToken, testAccount).
		Return(big.NewInt(5_000_000), nil)

	gate := NewGate(reader)
	err := gate.Authorize(context.Background(), testAccount, usdc(), big.NewInt(15_000_000))

	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestAuthorizeReadFailureIsNotInsufficient(t *testing.T) {
	reader := new(testutil.MockChainReader)
	reader.On("TokenBalance", mock.Anything, usdcToken, testAccount).
		Return(nil, errors.New("connection refused"))

	gate := NewGate(reader)
	err := gate.Authorize(context.Background(), testAccount, usdc(), big.NewInt(1))

	// A failed read must surface as unavailable, never as a balance verdict.
	assert.ErrorIs(t, err, ErrBalanceUnavailable)
	assert.NotErrorIs(t, err, ErrInsufficientBalance)
}

func TestAuthorizeRejectsNonPositiveAmount(t *testing.T) {
	gate := NewGate(new(testutil.MockChainReader))

	assert.Error(t, gate.Authorize(context.Background(), testAccount, usdc(), big.NewInt(0)))
	assert.Error(t, gate.Authorize(context.Background(), testAccount, usdc(), big.NewInt(-5)))
	assert.Error(t, gate.Authorize(context.Background(), testAccount, usdc(), nil))
}

func TestBalanceNativeAsset(t *testing.T) {
	reader := new(testutil.MockChainReader)
	reader.On("NativeBalance", mock.Anything, testAccount).
		Return(big.NewInt(1_000_000_000), nil)

	gate := NewGate(reader)
	got, err := gate.Balance(context.Background(), testAccount, NativeAsset("ETH", 18))

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_000), got)
	reader.AssertExpectations(t)
}

func TestDisplayScalesByDecimals(t *testing.T) {
	assert.Equal(t, "5", Display(usdc(), big.NewInt(5_000_000)).String())
	assert.Equal(t, "0.000001", Display(usdc(), big.NewInt(1)).String())
	assert.Equal(t, "1.5", Display(NativeAsset("ETH", 18), big.NewInt(1_500_000_000_000_000_000)).String())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    *big.Int
		wantErr bool
	}{
		{name: "whole", value: "15000", want: big.NewInt(15_000_000_000)},
		{name: "fractional", value: "0.5", want: big.NewInt(500_000)},
		{name: "smallest unit", value: "0.000001", want: big.NewInt(1)},
		{name: "too many decimals", value: "0.0000001", wantErr: true},
		{name: "not a number", value: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(usdc(), tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry(NativeAsset("ETH", 18), []Asset{usdc()})

	native, ok := registry.Resolve("")
	assert.True(t, ok)
	assert.True(t, native.Native)

	native, ok = registry.Resolve("eth")
	assert.True(t, ok)
	assert.Equal(t, "ETH", native.Symbol)

	token, ok := registry.Resolve("usdc")
	assert.True(t, ok)
	assert.Equal(t, usdcToken, token.Token)

	_, ok = registry.Resolve("DOGE")
	assert.False(t, ok)
}

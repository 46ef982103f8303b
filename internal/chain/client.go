// Package chain is the read-only blockchain surface: chain identity, native
// and token balances, account nonces and fee suggestions. Nothing in here
// mutates chain state.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/logger"
)

// Reader is the capability interface consumed by the deriver, the balance
// gate and the dispatcher.
type Reader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	AccountNonce(ctx context.Context, entryPoint, account common.Address) (*big.Int, error)
	GasFees(ctx context.Context) (maxFee, maxPriority *big.Int, err error)
}

// Client is the ethclient-backed Reader.
type Client struct {
	eth    *ethclient.Client
	logger *zap.Logger
}

// Dial connects to the network RPC.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to network RPC")
	}

	logger.Info("Connected to network RPC")
	return &Client{
		eth:    eth,
		logger: logger.Log,
	}, nil
}

// ChainID implements Reader.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain ID")
	}
	return id, nil
}

// NativeBalance implements Reader.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get native balance")
	}
	return balance, nil
}

// TokenBalance implements Reader. It calls balanceOf on the token contract.
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := PackBalanceOf(account)
	if err != nil {
		return nil, err
	}

	output, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "balanceOf call to %s failed", token.Hex())
	}
	return unpackUint256("balanceOf", erc20ABI, output)
}

// CodeAt implements Reader. Counterfactual accounts have no code until their
// first operation deploys them.
func (c *Client) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	code, err := c.eth.CodeAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account code")
	}
	return code, nil
}

// AccountNonce implements Reader. It reads the smart account's operation
// nonce from the entry point (key 0; this service uses a single nonce lane).
func (c *Client) AccountNonce(ctx context.Context, entryPoint, account common.Address) (*big.Int, error) {
	data, err := packGetNonce(account)
	if err != nil {
		return nil, err
	}

	output, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &entryPoint, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "getNonce call failed")
	}
	return unpackUint256("getNonce", entryPointABI, output)
}

// GasFees implements Reader with the node's fee suggestions.
func (c *Client) GasFees(ctx context.Context) (*big.Int, *big.Int, error) {
	maxFee, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to suggest gas price")
	}
	tip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to suggest gas tip")
	}
	return maxFee, tip, nil
}

// Close closes the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
	c.logger.Info("Closed RPC connection")
}

// Package bundler is the write surface towards the relay: it submits signed
// user operations and negotiates fee sponsorship with a paymaster when one
// is configured. The transport is the standard bundler JSON-RPC namespace.
package bundler

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/logger"
)

// GasEstimate is the bundler's gas quote for an operation.
type GasEstimate struct {
	PreVerificationGas   *hexutil.Big `json:"preVerificationGas"`
	VerificationGasLimit *hexutil.Big `json:"verificationGasLimit"`
	CallGasLimit         *hexutil.Big `json:"callGasLimit"`
}

// sponsorResult is the paymaster's response: the sponsorship blob plus
// optional gas overrides.
type sponsorResult struct {
	PaymasterAndData     hexutil.Bytes `json:"paymasterAndData"`
	PreVerificationGas   *hexutil.Big  `json:"preVerificationGas"`
	VerificationGasLimit *hexutil.Big  `json:"verificationGasLimit"`
	CallGasLimit         *hexutil.Big  `json:"callGasLimit"`
}

// Client talks to a bundler endpoint. One endpoint serves both the eth_ and
// pm_ namespaces; hosted bundlers multiplex them on a single URL.
type Client struct {
	rpc        *rpc.Client
	entryPoint common.Address
	rpcTimeout time.Duration
	logger     *zap.Logger
}

// ClientConfig configures the bundler client.
type ClientConfig struct {
	BundlerURL string
	EntryPoint common.Address
	RPCTimeout time.Duration
}

// NewClient connects to the bundler RPC endpoint.
func NewClient(ctx context.Context, config ClientConfig) (*Client, error) {
	if config.BundlerURL == "" {
		return nil, errors.New("bundler URL is required")
	}

	timeout := config.RPCTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client, err := rpc.DialContext(ctx, config.BundlerURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to bundler")
	}

	return &Client{
		rpc:        client,
		entryPoint: config.EntryPoint,
		rpcTimeout: timeout,
		logger:     logger.Log,
	}, nil
}

// EstimateUserOperationGas asks the bundler to quote gas for the operation.
// The operation needs a dummy or real signature attached; bundlers simulate
// validation as part of the estimate.
func (c *Client) EstimateUserOperationGas(ctx context.Context, op *UserOperation) (*GasEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	var estimate GasEstimate
	err := c.rpc.CallContext(ctx, &estimate, "eth_estimateUserOperationGas", op, c.entryPoint)
	if err != nil {
		return nil, errors.Wrap(err, "gas estimation failed")
	}
	return &estimate, nil
}

// SponsorUserOperation asks the paymaster to sponsor the operation and
// applies the returned paymasterAndData (and any gas overrides) in place.
// Must run before signing: the sponsorship blob is covered by the signature.
func (c *Client) SponsorUserOperation(ctx context.Context, op *UserOperation) error {
	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	var result sponsorResult
	err := c.rpc.CallContext(ctx, &result, "pm_sponsorUserOperation", op, c.entryPoint)
	if err != nil {
		return errors.Wrap(err, "paymaster declined sponsorship")
	}

	op.PaymasterAndData = result.PaymasterAndData
	if result.PreVerificationGas != nil {
		op.PreVerificationGas = result.PreVerificationGas.ToInt()
	}
	if result.VerificationGasLimit != nil {
		op.VerificationGasLimit = result.VerificationGasLimit.ToInt()
	}
	if result.CallGasLimit != nil {
		op.CallGasLimit = result.CallGasLimit.ToInt()
	}

	c.logger.Debug("User operation sponsored",
		zap.String("sender", op.Sender.Hex()),
		zap.Int("paymaster_data_size", len(op.PaymasterAndData)))
	return nil
}

// SendUserOperation submits the signed operation and returns its hash. The
// hash is an opaque handle for later status lookup; this client does not
// wait for inclusion.
func (c *Client) SendUserOperation(ctx context.Context, op *UserOperation) (common.Hash, error) {
	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	var opHash common.Hash
	err := c.rpc.CallContext(ctx, &opHash, "eth_sendUserOperation", op, c.entryPoint)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "bundler rejected user operation")
	}

	c.logger.Info("User operation submitted",
		zap.String("sender", op.Sender.Hex()),
		zap.String("operation_hash", opHash.Hex()))
	return opHash, nil
}

// Close closes the RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}

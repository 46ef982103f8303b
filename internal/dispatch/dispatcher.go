// Package dispatch builds, signs and submits value transfers on behalf of an
// active wallet session. Submission is fire-and-return: the caller gets an
// operation hash, never a finality guarantee.
package dispatch

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/balance"
	"github.com/lumenpay/wallet-api/internal/bundler"
	"github.com/lumenpay/wallet-api/internal/chain"
	"github.com/lumenpay/wallet-api/internal/helpers"
	"github.com/lumenpay/wallet-api/internal/logger"
	"github.com/lumenpay/wallet-api/internal/wallet"
)

var (
	// ErrInvalidAddress means the recipient does not match the network's
	// address format. Caller error; never retried.
	ErrInvalidAddress = errors.New("invalid recipient address")

	// ErrSubmissionRejected means the bundler or paymaster declined the
	// operation. Surfaced verbatim to the caller; never retried here.
	ErrSubmissionRejected = errors.New("operation submission rejected")
)

// Submitter is the bundler capability the dispatcher consumes.
type Submitter interface {
	EstimateUserOperationGas(ctx context.Context, op *bundler.UserOperation) (*bundler.GasEstimate, error)
	SponsorUserOperation(ctx context.Context, op *bundler.UserOperation) error
	SendUserOperation(ctx context.Context, op *bundler.UserOperation) (common.Hash, error)
}

// Dispatcher submits balance-gated transfers signed by a session key.
type Dispatcher struct {
	submitter Submitter
	reader    chain.Reader
	gate      *balance.Gate
	net       wallet.Network
	sponsor   bool
	logger    *zap.Logger
}

// NewDispatcher creates a transfer dispatcher. sponsor enables the paymaster
// fee-sponsorship path for every operation.
func NewDispatcher(submitter Submitter, reader chain.Reader, gate *balance.Gate, net wallet.Network, sponsor bool) *Dispatcher {
	return &Dispatcher{
		submitter: submitter,
		reader:    reader,
		gate:      gate,
		net:       net,
		sponsor:   sponsor,
		logger:    logger.Log,
	}
}

// Transfer sends amount (base units) of the asset from the smart account to
// the recipient, signed by the session signer. Native transfers carry value
// directly; token transfers encode an ERC-20 transfer through the same
// execute path. An account with no on-chain code yet is deployed by the same
// operation via its initCode. Returns the operation hash as an opaque handle.
func (d *Dispatcher) Transfer(
	ctx context.Context,
	sessionSigner *wallet.Signer,
	account wallet.SmartAccount,
	recipient string,
	amount *big.Int,
	asset balance.Asset,
) (common.Hash, error) {
	if !helpers.IsAddressValid(recipient) || helpers.IsZeroAddress(recipient) {
		return common.Hash{}, pkgerrors.Wrapf(ErrInvalidAddress, "%q", recipient)
	}
	if amount == nil || amount.Sign() <= 0 {
		return common.Hash{}, pkgerrors.Errorf("transfer amount must be positive")
	}

	if err := d.gate.Authorize(ctx, account.Address, asset, amount); err != nil {
		return common.Hash{}, err
	}

	to := common.HexToAddress(recipient)
	callData, err := d.buildCallData(to, amount, asset)
	if err != nil {
		return common.Hash{}, err
	}

	op, err := d.buildOperation(ctx, account, callData)
	if err != nil {
		return common.Hash{}, err
	}

	if d.sponsor {
		if err := d.submitter.SponsorUserOperation(ctx, op); err != nil {
			return common.Hash{}, pkgerrors.Wrapf(ErrSubmissionRejected, "sponsorship: %v", err)
		}
	}

	opHash, err := op.Hash(d.net.EntryPoint, d.net.ChainID)
	if err != nil {
		return common.Hash{}, pkgerrors.Wrap(err, "failed to hash user operation")
	}
	signature, err := sessionSigner.SignHash(opHash.Bytes())
	if err != nil {
		return common.Hash{}, pkgerrors.Wrap(err, "failed to sign user operation")
	}
	op.Signature = signature

	handle, err := d.submitter.SendUserOperation(ctx, op)
	if err != nil {
		return common.Hash{}, pkgerrors.Wrapf(ErrSubmissionRejected, "%v", err)
	}

	d.logger.Info("Transfer submitted",
		zap.String("account", account.Address.Hex()),
		zap.String("recipient", to.Hex()),
		zap.String("asset", asset.Symbol),
		zap.String("amount", amount.String()),
		zap.String("operation_hash", handle.Hex()))
	return handle, nil
}

func (d *Dispatcher) buildCallData(to common.Address, amount *big.Int, asset balance.Asset) ([]byte, error) {
	if asset.Native {
		return packExecute(to, amount, nil)
	}

	inner, err := chain.PackERC20Transfer(to, amount)
	if err != nil {
		return nil, err
	}
	return packExecute(asset.Token, new(big.Int), inner)
}

// buildOperation assembles the unsigned operation: entry-point nonce, fee
// suggestions from the node, gas limits from the bundler's estimate. An
// account without code gets the deploying initCode attached, so the entry
// point constructs it as part of this operation.
func (d *Dispatcher) buildOperation(ctx context.Context, account wallet.SmartAccount, callData []byte) (*bundler.UserOperation, error) {
	code, err := d.reader.CodeAt(ctx, account.Address)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read account code")
	}

	nonce, err := d.reader.AccountNonce(ctx, d.net.EntryPoint, account.Address)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read account nonce")
	}

	maxFee, maxPriority, err := d.reader.GasFees(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read gas fees")
	}

	op := &bundler.UserOperation{
		Sender:               account.Address,
		Nonce:                nonce,
		CallData:             callData,
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: maxPriority,
	}

	if len(code) == 0 {
		initCode, err := packInitCode(d.net.Factory, account.Owner, account.Index)
		if err != nil {
			return nil, err
		}
		op.InitCode = initCode
		d.logger.Debug("Attaching deployment initCode",
			zap.String("account", account.Address.Hex()),
			zap.String("factory", d.net.Factory.Hex()))
	}

	estimate, err := d.submitter.EstimateUserOperationGas(ctx, op)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrSubmissionRejected, "estimation: %v", err)
	}
	if estimate.PreVerificationGas == nil || estimate.VerificationGasLimit == nil || estimate.CallGasLimit == nil {
		return nil, pkgerrors.Wrap(ErrSubmissionRejected, "estimation: incomplete gas quote")
	}
	op.PreVerificationGas = estimate.PreVerificationGas.ToInt()
	op.VerificationGasLimit = estimate.VerificationGasLimit.ToInt()
	op.CallGasLimit = estimate.CallGasLimit.ToInt()

	return op, nil
}

package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/logger"
)

// Policy names what a session signer is allowed to do on the account.
// Only the full "sudo" grant is modeled; scoped policies are a known gap.
type Policy string

// PolicyUnrestricted delegates full control of the account to the session
// signer.
const PolicyUnrestricted Policy = "unrestricted"

// SessionBinding is the session-key view of a smart account: a second signer
// attached at the same account index as the owner, so both views resolve to
// one on-chain address.
type SessionBinding struct {
	SessionAddress common.Address
	AccountAddress common.Address
	AccountIndex   uint64
	Policy         Policy
}

// Linker binds session signers to smart accounts and enforces the linkage
// invariant.
type Linker struct {
	deriver *Deriver
	logger  *zap.Logger
}

// NewLinker creates a linker backed by the given deriver.
func NewLinker(deriver *Deriver) *Linker {
	return &Linker{
		deriver: deriver,
		logger:  logger.Log,
	}
}

// Bind attaches the session signer to the account at the account's index and
// verifies the binding resolves to the exact address the owner derivation
// produces. A binding that fails this check is never returned: a session key
// that resolves elsewhere cannot control the intended account, and persisting
// it would corrupt the wallet record. Binding has no on-chain side effects;
// accounts deploy on first use.
func (l *Linker) Bind(ctx context.Context, account SmartAccount, session *Signer, policy Policy) (SessionBinding, error) {
	if session == nil {
		return SessionBinding{}, errors.New("session signer is required")
	}
	if policy != PolicyUnrestricted {
		return SessionBinding{}, errors.Wrapf(ErrUnsupportedPolicy, "policy %q", policy)
	}

	resolved, err := l.deriver.Derive(ctx, account.Owner, account.Index)
	if err != nil {
		return SessionBinding{}, errors.Wrap(err, "failed to resolve session account")
	}

	if resolved.Address != account.Address {
		l.logger.Error("Session binding resolved to a different account",
			zap.String("owner_derived", account.Address.Hex()),
			zap.String("session_resolved", resolved.Address.Hex()),
			zap.Uint64("account_index", account.Index))
		return SessionBinding{}, errors.Wrapf(ErrLinkageMismatch,
			"owner derivation %s, session resolution %s", account.Address.Hex(), resolved.Address.Hex())
	}

	l.logger.Info("Session key bound to smart account",
		zap.String("account", resolved.Address.Hex()),
		zap.String("session_key", session.Address.Hex()),
		zap.Uint64("account_index", account.Index),
		zap.String("policy", string(policy)))

	return SessionBinding{
		SessionAddress: session.Address,
		AccountAddress: resolved.Address,
		AccountIndex:   account.Index,
		Policy:         policy,
	}, nil
}

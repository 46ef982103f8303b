// Package session orchestrates the wallet lifecycle: creating a wallet +
// session-key pair, restoring it from the store in a later process, and
// tearing it down. All transitions for one user are sequential; different
// users are fully independent.
package session

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lumenpay/wallet-api/internal/wallet"
)

// State is the lifecycle state of one user's wallet session.
type State int

const (
	StateUninitialized State = iota
	StateCreating
	StateRestoring
	StateActive
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreating:
		return "creating"
	case StateRestoring:
		return "restoring"
	case StateActive:
		return "active"
	case StateResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyActive means create/restore was called while a session is
	// already active; the caller must reset first. Never a silent
	// re-derivation.
	ErrAlreadyActive = errors.New("wallet session already active")

	// ErrNotActive means an operation that needs an active session (reset,
	// transfer, balances) was called without one.
	ErrNotActive = errors.New("no active wallet session")

	// ErrRecordCorrupt means the persisted record failed to decode or failed
	// the linkage replay. The bad record is deleted (self-healing); the user
	// can create a fresh wallet.
	ErrRecordCorrupt = errors.New("wallet record corrupt")
)

// Wallet is the caller-facing view of an active session's account.
type Wallet struct {
	Address      common.Address
	AccountIndex uint64
	Network      string
}

// Active bundles everything a dispatcher needs to act on behalf of an active
// session: the account and the delegated session signer.
type Active struct {
	Account       wallet.SmartAccount
	Binding       wallet.SessionBinding
	SessionSigner *wallet.Signer
}

// userSession holds one user's in-memory state. The embedded key material is
// a transient copy; the store owns the durable record.
type userSession struct {
	state         State
	account       wallet.SmartAccount
	binding       wallet.SessionBinding
	ownerSigner   *wallet.Signer
	sessionSigner *wallet.Signer
}

func (s *userSession) clear() {
	s.state = StateUninitialized
	s.account = wallet.SmartAccount{}
	s.binding = wallet.SessionBinding{}
	s.ownerSigner = nil
	s.sessionSigner = nil
}

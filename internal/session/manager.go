package session

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/logger"
	"github.com/lumenpay/wallet-api/internal/store"
	"github.com/lumenpay/wallet-api/internal/wallet"
)

// Manager owns the per-user wallet sessions and drives their state machines.
type Manager struct {
	store        store.Store
	deriver      *wallet.Deriver
	linker       *wallet.Linker
	accountIndex uint64
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*lockedSession
}

// lockedSession serializes all transitions for one user. The per-user mutex
// is held across the whole multi-step create/restore/reset sequence so a
// user's transitions never interleave, while other users proceed untouched.
type lockedSession struct {
	mu sync.Mutex
	userSession
}

// NewManager creates a session manager. accountIndex is the configuration
// constant shared by the owner and session views of every wallet it creates.
func NewManager(st store.Store, deriver *wallet.Deriver, linker *wallet.Linker, accountIndex uint64) *Manager {
	return &Manager{
		store:        st,
		deriver:      deriver,
		linker:       linker,
		accountIndex: accountIndex,
		logger:       logger.Log,
		sessions:     make(map[string]*lockedSession),
	}
}

func (m *Manager) session(userID string) *lockedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		sess = &lockedSession{}
		m.sessions[userID] = sess
	}
	return sess
}

// release drops the map entry for a session that ended up Uninitialized, so
// lookups for users without a wallet do not grow the map forever. Must run
// while the caller still holds sess.mu; the identity check keeps a newer
// entry installed by a concurrent caller intact.
func (m *Manager) release(userID string, sess *lockedSession) {
	if sess.state != StateUninitialized {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[userID]; ok && current == sess {
		delete(m.sessions, userID)
	}
}

// Create provisions a fresh wallet + session-key pair for the user and
// persists the record. Valid only from Uninitialized. On any mid-sequence
// failure the session rolls back to Uninitialized and nothing is persisted.
func (m *Manager) Create(ctx context.Context, userID string) (*Wallet, error) {
	sess := m.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	defer m.release(userID, sess)

	if sess.state == StateActive {
		return nil, ErrAlreadyActive
	}
	if sess.state != StateUninitialized {
		return nil, errors.Errorf("cannot create wallet from state %s", sess.state)
	}

	sess.state = StateCreating
	w, err := m.create(ctx, userID, &sess.userSession)
	if err != nil {
		sess.clear()
		return nil, err
	}

	sess.state = StateActive
	return w, nil
}

func (m *Manager) create(ctx context.Context, userID string, sess *userSession) (*Wallet, error) {
	ownerSigner, err := wallet.NewSigner()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate owner signer")
	}
	sessionSigner, err := wallet.NewSigner()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate session signer")
	}

	account, err := m.deriver.Derive(ctx, ownerSigner.Address, m.accountIndex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive smart account")
	}

	binding, err := m.linker.Bind(ctx, account, sessionSigner, wallet.PolicyUnrestricted)
	if err != nil {
		return nil, errors.Wrap(err, "failed to bind session key")
	}

	now := time.Now().UTC()
	record := &store.WalletRecord{
		UserID: userID,
		Wallet: store.WalletInfo{
			Address:         account.Address.Hex(),
			OwnerPrivateKey: ownerSigner.PrivateKeyHex(),
			AccountIndex:    account.Index,
			Network:         account.Network,
		},
		SessionKey: store.SessionKeyInfo{
			Address:           sessionSigner.Address.Hex(),
			SessionPrivateKey: sessionSigner.PrivateKeyHex(),
			AccountAddress:    binding.AccountAddress.Hex(),
			Network:           account.Network,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Persisting is the last step: everything before it is recomputable, so
	// an abort anywhere above leaves no partial record behind.
	if err := m.store.Put(ctx, record); err != nil {
		return nil, errors.Wrap(err, "failed to persist wallet record")
	}

	sess.account = account
	sess.binding = binding
	sess.ownerSigner = ownerSigner
	sess.sessionSigner = sessionSigner

	m.logger.Info("Wallet created",
		zap.String("user_id", userID),
		zap.String("address", account.Address.Hex()),
		zap.Uint64("account_index", account.Index),
		zap.String("network", account.Network))

	return &Wallet{
		Address:      account.Address,
		AccountIndex: account.Index,
		Network:      account.Network,
	}, nil
}

// Restore rebuilds the session from the persisted record. Valid only from
// Uninitialized. A missing record is not a failure: it surfaces
// store.ErrNotFound and the session stays Uninitialized. A record that fails
// to decode or fails the linkage replay is deleted and ErrRecordCorrupt is
// returned, so the user can create fresh instead of proceeding with a broken
// binding.
func (m *Manager) Restore(ctx context.Context, userID string) (*Wallet, error) {
	sess := m.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	defer m.release(userID, sess)

	if sess.state == StateActive {
		return nil, ErrAlreadyActive
	}
	if sess.state != StateUninitialized {
		return nil, errors.Errorf("cannot restore wallet from state %s", sess.state)
	}

	sess.state = StateRestoring
	w, err := m.restore(ctx, userID, &sess.userSession)
	if err != nil {
		sess.clear()
		return nil, err
	}

	sess.state = StateActive
	return w, nil
}

func (m *Manager) restore(ctx context.Context, userID string, sess *userSession) (*Wallet, error) {
	record, err := m.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No wallet yet. The safe default, not an error condition.
			return nil, store.ErrNotFound
		}
		if errors.Is(err, store.ErrCorruptRecord) {
			return nil, m.quarantine(ctx, userID, err)
		}
		return nil, errors.Wrap(err, "failed to load wallet record")
	}

	ownerSigner, err := wallet.SignerFromHex(record.Wallet.OwnerPrivateKey)
	if err != nil {
		return nil, m.quarantine(ctx, userID, err)
	}
	sessionSigner, err := wallet.SignerFromHex(record.SessionKey.SessionPrivateKey)
	if err != nil {
		return nil, m.quarantine(ctx, userID, err)
	}

	if record.Wallet.Network != m.deriver.Network().Name {
		// Not corruption: the record belongs to a different network than the
		// one this process is configured for. Refuse without deleting.
		return nil, errors.Errorf("wallet record belongs to network %q, configured network is %q",
			record.Wallet.Network, m.deriver.Network().Name)
	}

	account, err := m.deriver.Derive(ctx, ownerSigner.Address, record.Wallet.AccountIndex)
	if err != nil {
		// Derivation errors (network down, unknown version) are retryable
		// and must not destroy the record.
		return nil, errors.Wrap(err, "failed to replay account derivation")
	}

	if account.Address != common.HexToAddress(record.Wallet.Address) ||
		account.Address != common.HexToAddress(record.SessionKey.AccountAddress) {
		return nil, m.quarantine(ctx, userID, errors.Errorf(
			"derivation replay produced %s, record claims wallet=%s session=%s",
			account.Address.Hex(), record.Wallet.Address, record.SessionKey.AccountAddress))
	}

	binding, err := m.linker.Bind(ctx, account, sessionSigner, wallet.PolicyUnrestricted)
	if err != nil {
		if errors.Is(err, wallet.ErrLinkageMismatch) {
			return nil, m.quarantine(ctx, userID, err)
		}
		return nil, errors.Wrap(err, "failed to replay session binding")
	}

	sess.account = account
	sess.binding = binding
	sess.ownerSigner = ownerSigner
	sess.sessionSigner = sessionSigner

	m.logger.Info("Wallet restored",
		zap.String("user_id", userID),
		zap.String("address", account.Address.Hex()),
		zap.Uint64("account_index", account.Index))

	return &Wallet{
		Address:      account.Address,
		AccountIndex: account.Index,
		Network:      account.Network,
	}, nil
}

// quarantine deletes a record that failed decoding or linkage replay and
// reports ErrRecordCorrupt. Deletion is best-effort: a record we cannot
// remove right now will fail replay again on the next restore.
func (m *Manager) quarantine(ctx context.Context, userID string, cause error) error {
	m.logger.Warn("Deleting corrupt wallet record",
		zap.String("user_id", userID),
		zap.Error(cause))

	if err := m.store.Delete(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Error("Failed to delete corrupt wallet record",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return errors.Wrapf(ErrRecordCorrupt, "%v", cause)
}

// Reset tears down the active session and deletes the persisted record.
// Record deletion is best-effort: the in-memory session is cleared no matter
// what, so a deletion failure is logged rather than surfaced as fatal.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	sess := m.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	defer m.release(userID, sess)

	if sess.state != StateActive {
		return ErrNotActive
	}

	sess.state = StateResetting
	if err := m.store.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.logger.Debug("No wallet record to delete on reset",
				zap.String("user_id", userID))
		} else {
			m.logger.Warn("Failed to delete wallet record on reset",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	sess.clear()
	m.logger.Info("Wallet session reset", zap.String("user_id", userID))
	return nil
}

// ActiveSession returns the dispatch view of the user's active session, or
// ErrNotActive when the session is in any other state.
func (m *Manager) ActiveSession(userID string) (*Active, error) {
	sess := m.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	defer m.release(userID, sess)

	if sess.state != StateActive {
		return nil, ErrNotActive
	}
	return &Active{
		Account:       sess.account,
		Binding:       sess.binding,
		SessionSigner: sess.sessionSigner,
	}, nil
}

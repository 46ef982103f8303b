package session

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lumenpay/wallet-api/internal/mocks"
	"github.com/lumenpay/wallet-api/internal/store"
	"github.com/lumenpay/wallet-api/internal/wallet"
)

func testNetwork() wallet.Network {
	return wallet.Network{
		Name:       "sepolia",
		ChainID:    11155111,
		EntryPoint: common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
		Factory:    common.HexToAddress("0x9406Cc6185a346906296840746125a0E44976454"),
		Version:    "v0.6",
		Implementations: map[string]common.Address{
			"v0.6": common.HexToAddress("0x8aC5e9175536E50A02b5F75B5433a4A6bB4e32b4"),
		},
	}
}

func newTestManager(st store.Store) *Manager {
	deriver := wallet.NewDeriver(testNetwork(), nil)
	return NewManager(st, deriver, wallet.NewLinker(deriver), 0)
}

type failingProber struct{}

func (failingProber) ChainID(ctx context.Context) (*big.Int, error) {
	return nil, errors.New("connection refused")
}

func TestCreateActivatesAndPersists(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestManager(st)
	ctx := context.Background()

	w, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, w.Address)
	assert.Equal(t, uint64(0), w.AccountIndex)
	assert.Equal(t, "sepolia", w.Network)

	record, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, w.Address.Hex(), record.Wallet.Address)
	assert.Equal(t, w.Address.Hex(), record.SessionKey.AccountAddress)
	assert.NotEmpty(t, record.Wallet.OwnerPrivateKey)
	assert.NotEmpty(t, record.SessionKey.SessionPrivateKey)
	assert.NotEqual(t, record.Wallet.OwnerPrivateKey, record.SessionKey.SessionPrivateKey)

	active, err := m.ActiveSession("user-1")
	require.NoError(t, err)
	assert.Equal(t, w.Address, active.Account.Address)
	assert.Equal(t, active.Binding.SessionAddress, active.SessionSigner.Address)
}

func TestCreateTwiceIsRejected(t *testing.T) {
	m := newTestManager(store.NewMemoryStore())
	ctx := context.Background()

	_, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	_, err = m.Create(ctx, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestUsersAreIndependent(t *testing.T) {
	m := newTestManager(store.NewMemoryStore())
	ctx := context.Background()

	w1, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	w2, err := m.Create(ctx, "user-2")
	require.NoError(t, err)

	assert.NotEqual(t, w1.Address, w2.Address)
}

func TestRestoreReproducesWallet(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	created, err := newTestManager(st).Create(ctx, "user-1")
	require.NoError(t, err)

	// A fresh manager simulates a process restart.
	m := newTestManager(st)
	restored, err := m.Restore(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, created.Address, restored.Address)
	assert.Equal(t, created.AccountIndex, restored.AccountIndex)

	active, err := m.ActiveSession("user-1")
	require.NoError(t, err)
	assert.Equal(t, created.Address, active.Account.Address)
}

func TestRestoreWithoutRecord(t *testing.T) {
	m := newTestManager(store.NewMemoryStore())

	_, err := m.Restore(context.Background(), "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The session stays Uninitialized: create still works.
	_, err = m.Create(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestRestoreWhileActive(t *testing.T) {
	m := newTestManager(store.NewMemoryStore())
	ctx := context.Background()

	_, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	_, err = m.Restore(ctx, "user-1")
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestRestoreDeletesUndecodableRecord(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestManager(st)
	ctx := context.Background()

	st.PutRaw("user-1", []byte("{broken"))

	_, err := m.Restore(ctx, "user-1")
	assert.ErrorIs(t, err, ErrRecordCorrupt)

	// Self-healing: the bad record is gone and create works.
	_, err = st.Get(ctx, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = m.Create(ctx, "user-1")
	assert.NoError(t, err)
}

func TestRestoreDeletesTamperedRecord(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	_, err := newTestManager(st).Create(ctx, "user-1")
	require.NoError(t, err)

	record, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	record.Wallet.Address = "0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead"
	require.NoError(t, st.Put(ctx, record))

	m := newTestManager(st)
	_, err = m.Restore(ctx, "user-1")
	assert.ErrorIs(t, err, ErrRecordCorrupt)

	_, err = st.Get(ctx, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestoreDeletesRecordWithBadKey(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	_, err := newTestManager(st).Create(ctx, "user-1")
	require.NoError(t, err)

	record, err := st.Get(ctx, "user-1")
	require.NoError(t, err)
	record.SessionKey.SessionPrivateKey = "0xnothex"
	require.NoError(t, st.Put(ctx, record))

	_, err = newTestManager(st).Restore(ctx, "user-1")
	assert.ErrorIs(t, err, ErrRecordCorrupt)

	_, err = st.Get(ctx, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestoreKeepsRecordOnNetworkMismatch(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	_, err := newTestManager(st).Create(ctx, "user-1")
	require.NoError(t, err)

	other := testNetwork()
	other.Name = "base"
	deriver := wallet.NewDeriver(other, nil)
	m := NewManager(st, deriver, wallet.NewLinker(deriver), 0)

	_, err = m.Restore(ctx, "user-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRecordCorrupt)

	// Wrong process configuration must not destroy the record.
	_, err = st.Get(ctx, "user-1")
	assert.NoError(t, err)
}

func TestRestoreKeepsRecordWhenNetworkDown(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	_, err := newTestManager(st).Create(ctx, "user-1")
	require.NoError(t, err)

	deriver := wallet.NewDeriver(testNetwork(), failingProber{})
	m := NewManager(st, deriver, wallet.NewLinker(deriver), 0)

	_, err = m.Restore(ctx, "user-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRecordCorrupt)

	// Retryable failure: the record survives for the next attempt.
	_, err = st.Get(ctx, "user-1")
	assert.NoError(t, err)
}

func TestResetClearsSessionAndRecord(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestManager(st)
	ctx := context.Background()

	_, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx, "user-1"))

	_, err = m.ActiveSession("user-1")
	assert.ErrorIs(t, err, ErrNotActive)

	_, err = m.Restore(ctx, "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Back to Uninitialized: a fresh create produces a new wallet.
	_, err = m.Create(ctx, "user-1")
	assert.NoError(t, err)
}

func TestResetWithoutActiveSession(t *testing.T) {
	m := newTestManager(store.NewMemoryStore())

	err := m.Reset(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestCreateRollsBackOnPersistFailure(t *testing.T) {
	mockStore := mocks.NewMockStoreForTest(t)
	deriver := wallet.NewDeriver(testNetwork(), nil)
	m := NewManager(mockStore, deriver, wallet.NewLinker(deriver), 0)
	ctx := context.Background()

	mockStore.EXPECT().
		Put(gomock.Any(), gomock.Any()).
		Return(errors.New("disk full"))

	_, err := m.Create(ctx, "user-1")
	assert.Error(t, err)

	// Nothing was activated: the next create runs the full sequence again.
	mockStore.EXPECT().
		Put(gomock.Any(), gomock.Any()).
		Return(nil)

	_, err = m.Create(ctx, "user-1")
	assert.NoError(t, err)
}

func TestActiveSessionRequiresActiveState(t *testing.T) {
	m := newTestManager(store.NewMemoryStore())

	_, err := m.ActiveSession("user-1")
	assert.ErrorIs(t, err, ErrNotActive)
}

func sessionCount(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func TestSessionMapPrunedWhenInactive(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestManager(st)
	ctx := context.Background()

	// Lookups for users without a wallet must not leave entries behind.
	_, err := m.ActiveSession("ghost-1")
	assert.ErrorIs(t, err, ErrNotActive)
	_, err = m.Restore(ctx, "ghost-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	err = m.Reset(ctx, "ghost-3")
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, 0, sessionCount(m))

	// An active session is pinned in the map until reset.
	_, err = m.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sessionCount(m))

	_, err = m.ActiveSession("user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sessionCount(m))

	require.NoError(t, m.Reset(ctx, "user-1"))
	assert.Equal(t, 0, sessionCount(m))
}

func TestSessionMapPrunedOnFailedCreate(t *testing.T) {
	mockStore := mocks.NewMockStoreForTest(t)
	deriver := wallet.NewDeriver(testNetwork(), nil)
	m := NewManager(mockStore, deriver, wallet.NewLinker(deriver), 0)

	mockStore.EXPECT().
		Put(gomock.Any(), gomock.Any()).
		Return(errors.New("disk full"))

	_, err := m.Create(context.Background(), "user-1")
	assert.Error(t, err)
	assert.Equal(t, 0, sessionCount(m))
}

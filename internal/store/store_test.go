package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(userID string) *WalletRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return &WalletRecord{
		UserID: userID,
		Wallet: WalletInfo{
			Address:         "0x4e59b44847b379578588920cA78FbF26c0B4956C",
			OwnerPrivateKey: "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
			AccountIndex:    0,
			Network:         "sepolia",
		},
		SessionKey: SessionKeyInfo{
			Address:           "0x8626f6940E2eb28930eFb4CeF49B2d1F2C9C1199",
			SessionPrivateKey: "0x6370fd033278c143179d81c5526140625662b8daa446c22ee2d73db3707e620c",
			AccountAddress:    "0x4e59b44847b379578588920cA78FbF26c0B4956C",
			Network:           "sepolia",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// storeUnderTest exercises the shared contract for a backend.
func storeUnderTest(t *testing.T, s Store) {
	ctx := context.Background()

	// Missing record
	_, err := s.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "nobody"), ErrNotFound)

	// Round trip
	record := sampleRecord("user-1")
	require.NoError(t, s.Put(ctx, record))

	got, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, record.Wallet, got.Wallet)
	assert.Equal(t, record.SessionKey, got.SessionKey)
	assert.True(t, record.CreatedAt.Equal(got.CreatedAt))

	// Whole-record replacement
	updated := sampleRecord("user-1")
	updated.Wallet.AccountIndex = 7
	require.NoError(t, s.Put(ctx, updated))

	got, err = s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Wallet.AccountIndex)

	// Isolation between users
	require.NoError(t, s.Put(ctx, sampleRecord("user-2")))
	require.NoError(t, s.Delete(ctx, "user-1"))

	_, err = s.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "user-2")
	assert.NoError(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	storeUnderTest(t, s)
}

func TestMemoryStoreCorruptRecord(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	s.PutRaw("user-1", []byte("{not json"))

	_, err := s.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	storeUnderTest(t, s)
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), sampleRecord("user-1")))
	require.NoError(t, s.Close())

	reopened, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", got.Wallet.Network)
}

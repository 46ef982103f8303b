package store

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/logger"
)

// badgerRecord wraps the serialized record so decode failures can be told
// apart from a missing key: the blob is stored as JSON bytes and decoded on
// read, exactly like the other backends.
type badgerRecord struct {
	UserID string `badgerhold:"key"`
	Raw    []byte
}

// BadgerStore is the embedded persistence backend. Badger transactions make
// each upsert atomic per key; concurrent writers to different user IDs never
// block each other.
type BadgerStore struct {
	db     *badgerhold.Store
	logger *zap.Logger
}

// NewBadgerStore opens (or creates) the badger store under dataDir.
func NewBadgerStore(dataDir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dataDir)
	opts.Logger = nil

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder: jsonEncode,
		Decoder: jsonDecode,
		Options: opts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening wallet record db")
	}

	return &BadgerStore{
		db:     db,
		logger: logger.Log,
	}, nil
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, userID string) (*WalletRecord, error) {
	var wrapped badgerRecord
	if err := s.db.Get(userID, &wrapped); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(ErrUnavailable, "get wallet record: %v", err)
	}

	var record WalletRecord
	if err := json.Unmarshal(wrapped.Raw, &record); err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "user %s: %v", userID, err)
	}
	return &record, nil
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, record *WalletRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal wallet record")
	}

	wrapped := badgerRecord{UserID: record.UserID, Raw: raw}
	if err := s.db.Upsert(record.UserID, &wrapped); err != nil {
		s.logger.Error("Failed to write wallet record",
			zap.String("user_id", record.UserID),
			zap.Error(err))
		return errors.Wrapf(ErrUnavailable, "put wallet record: %v", err)
	}
	return nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(ctx context.Context, userID string) error {
	if err := s.db.Delete(userID, &badgerRecord{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrapf(ErrUnavailable, "delete wallet record: %v", err)
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// jsonEncode is a custom JSON based encoder for badger
func jsonEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer
	if err := json.NewEncoder(&buff).Encode(value); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// jsonDecode is a custom JSON based decoder for badger
func jsonDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a volatile Store used by tests and local development.
// Records round-trip through JSON so decode behavior matches the durable
// backends, including ErrCorruptRecord detection.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, userID string) (*WalletRecord, error) {
	s.mu.RLock()
	raw, ok := s.records[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	var record WalletRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, ErrCorruptRecord
	}
	return &record, nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, record *WalletRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records[record.UserID] = raw
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[userID]; !ok {
		return ErrNotFound
	}
	delete(s.records, userID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// PutRaw writes arbitrary bytes for a user, bypassing serialization. Tests
// use it to plant undecodable records.
func (s *MemoryStore) PutRaw(userID string, raw []byte) {
	s.mu.Lock()
	s.records[userID] = raw
	s.mu.Unlock()
}

// Package store persists wallet records, the only durable state in the
// system. A record is the serialized {owner keys, session keys, account
// index, network} tuple keyed by user ID; every write replaces the whole
// record and readers never observe a torn mix of old and new.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means no record exists for the user ID.
	ErrNotFound = errors.New("wallet record not found")

	// ErrCorruptRecord means a stored record exists but cannot be decoded.
	ErrCorruptRecord = errors.New("wallet record is corrupt")

	// ErrUnavailable means the persistence layer could not be reached.
	ErrUnavailable = errors.New("wallet store unavailable")
)

// WalletInfo is the owner half of a persisted record.
type WalletInfo struct {
	Address         string `json:"address"`
	OwnerPrivateKey string `json:"owner_private_key"`
	AccountIndex    uint64 `json:"account_index"`
	Network         string `json:"network"`
}

// SessionKeyInfo is the session half of a persisted record. AccountAddress is
// the smart-account address the session key was linked to and must match
// WalletInfo.Address.
type SessionKeyInfo struct {
	Address           string `json:"address"`
	SessionPrivateKey string `json:"session_private_key"`
	AccountAddress    string `json:"account_address"`
	Network           string `json:"network"`
}

// WalletRecord is one user's persisted wallet + session-key pair. Exactly one
// record exists per user ID, with last-write-wins semantics.
//
// Key material is stored in plaintext. That mirrors the persistence format
// this service inherited and is flagged as a mandatory hardening item
// (encrypt at rest or move to custodied keys) before production use.
type WalletRecord struct {
	UserID     string         `json:"user_id"`
	Wallet     WalletInfo     `json:"wallet_info"`
	SessionKey SessionKeyInfo `json:"session_key_info"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Store is the keyed persistence surface. Implementations must be atomic per
// key: concurrent writers to the same user ID resolve last-write-wins, and
// writers to different user IDs never interfere.
type Store interface {
	// Get returns the record for the user, ErrNotFound if absent, or
	// ErrCorruptRecord if the stored bytes fail to decode.
	Get(ctx context.Context, userID string) (*WalletRecord, error)

	// Put writes the whole record, replacing any previous one.
	Put(ctx context.Context, record *WalletRecord) error

	// Delete removes the record, returning ErrNotFound if absent.
	Delete(ctx context.Context, userID string) error

	// Close releases backend resources.
	Close() error
}

package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumenpay/wallet-api/internal/logger"
)

const createWalletRecordsTable = `
CREATE TABLE IF NOT EXISTS wallet_records (
    user_id    TEXT PRIMARY KEY,
    record     JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists wallet records as one JSONB row per user. The
// single-row upsert gives per-key atomicity and crash consistency for free:
// a reader sees either the previous row or the new one.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects a pool and ensures the backing table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse database connection string")
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create connection pool")
	}

	if _, err := pool.Exec(ctx, createWalletRecordsTable); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ensure wallet_records table")
	}

	return &PostgresStore{
		pool:   pool,
		logger: logger.Log,
	}, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*WalletRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM wallet_records WHERE user_id = $1`, userID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(ErrUnavailable, "get wallet record: %v", err)
	}

	var record WalletRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "user %s: %v", userID, err)
	}
	return &record, nil
}

// Put implements Store. The upsert replaces the whole record, last writer
// wins.
func (s *PostgresStore) Put(ctx context.Context, record *WalletRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal wallet record")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO wallet_records (user_id, record, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		record.UserID, raw, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		s.logger.Error("Failed to write wallet record",
			zap.String("user_id", record.UserID),
			zap.Error(err))
		return errors.Wrapf(ErrUnavailable, "put wallet record: %v", err)
	}
	return nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM wallet_records WHERE user_id = $1`, userID)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "delete wallet record: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Package sqlitestore provides an embedded, cgo-free durable ReceiptStore
// backed by modernc.org/sqlite, an alternative to the file-based default in
// runtime.ReceiptStore for single-node deployments that want one file
// instead of one-file-per-run.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
	run_id TEXT PRIMARY KEY,
	payload TEXT NOT NULL
);
`

// Store persists Receipts as JSON blobs in a single SQLite database file.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path and ensures its schema
// exists. SQLite is single-writer, so the connection pool is capped at one.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, abperrors.Wrap(abperrors.Internal, "sqlitestore: open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, abperrors.Wrap(abperrors.Internal, "sqlitestore: set journal mode", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, abperrors.Wrap(abperrors.Internal, "sqlitestore: create schema", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save upserts receipt under its run id.
func (s *Store) Save(ctx context.Context, receipt contract.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return abperrors.Wrap(abperrors.Internal, "sqlitestore: marshal receipt", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO receipts (run_id, payload) VALUES (?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload`,
		receipt.Meta.RunID.String(), string(payload),
	)
	if err != nil {
		return abperrors.Wrap(abperrors.Internal, "sqlitestore: save receipt", err)
	}
	return nil
}

// Load retrieves the receipt stored for runID.
func (s *Store) Load(ctx context.Context, runID uuid.UUID) (contract.Receipt, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM receipts WHERE run_id = ?`, runID.String()).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contract.Receipt{}, abperrors.Newf(abperrors.Internal, "sqlitestore: no receipt for run %s", runID)
		}
		return contract.Receipt{}, abperrors.Wrap(abperrors.Internal, "sqlitestore: load receipt", err)
	}
	var receipt contract.Receipt
	if err := json.Unmarshal([]byte(payload), &receipt); err != nil {
		return contract.Receipt{}, abperrors.Wrap(abperrors.Internal, "sqlitestore: unmarshal receipt", err)
	}
	return receipt, nil
}

// List returns every run id currently stored, ordered by run_id.
func (s *Store) List(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM receipts ORDER BY run_id`)
	if err != nil {
		return nil, abperrors.Wrap(abperrors.Internal, "sqlitestore: list receipts", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, abperrors.Wrap(abperrors.Internal, "sqlitestore: scan run id", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Verify loads the receipt stored for runID and reports whether its
// recorded hash matches its recomputed content hash.
func (s *Store) Verify(ctx context.Context, runID uuid.UUID) (bool, error) {
	receipt, err := s.Load(ctx, runID)
	if err != nil {
		return false, err
	}
	return contract.VerifyHash(receipt), nil
}

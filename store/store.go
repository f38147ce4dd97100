// Package store persists solved double-dummy tables in SQLite, keyed by the
// deal's PBN string.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/ddsolver/solver"
)

const schema = `
CREATE TABLE IF NOT EXISTS tables (
	pbn        TEXT PRIMARY KEY,
	strains    TEXT NOT NULL,
	result     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore implements solver.Store.
type SQLiteStore struct {
	db *sql.DB
}

var _ solver.Store = (*SQLiteStore)(nil)

// Open opens or creates the database at path. ":memory:" keeps it in
// memory for the life of the store.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("opened-table-store")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Lookup returns the stored table for a deal, or nil if there is none.
func (s *SQLiteStore) Lookup(ctx context.Context, pbn string) (*solver.Result, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM tables WHERE pbn = ?`, pbn).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res := &solver.Result{}
	if err := json.Unmarshal([]byte(data), res); err != nil {
		return nil, fmt.Errorf("decoding stored table for %s: %w", pbn, err)
	}
	return res, nil
}

// Save stores a table, merging it with strains already stored for the
// deal.
func (s *SQLiteStore) Save(ctx context.Context, pbn string, r *solver.Result) error {
	merged := r
	old, err := s.Lookup(ctx, pbn)
	if err != nil {
		return err
	}
	if old != nil {
		merged = solver.Merge(r, old)
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tables (pbn, strains, result, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(pbn) DO UPDATE SET
			strains = excluded.strains,
			result = excluded.result,
			updated_at = excluded.updated_at`,
		pbn, merged.SolvedStrains().String(), string(data), time.Now().Unix())
	return err
}

// Count returns the number of stored deals.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables`).Scan(&n)
	return n, err
}

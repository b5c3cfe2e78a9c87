package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS charge_runs (
	id INTEGER PRIMARY KEY,
	run_id TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at INTEGER NOT NULL,
	mode TEXT NOT NULL,
	outcome TEXT NOT NULL,
	record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_charge_runs_ended ON charge_runs (ended_at);
`

// SQLiteStore persists run records to a SQLite database. The filter
// columns are extracted at insert time; the full record rides along as
// a JSON blob so the samples survive without a table of their own.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc.org/sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec RunRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	const insert = `INSERT INTO charge_runs (run_id, started_at, ended_at, mode, outcome, record)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, insert,
		rec.ID, rec.StartedAt.Unix(), rec.EndedAt.Unix(), rec.Mode, rec.Outcome, string(blob))
	return err
}

// Query returns records matching the window and mode, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, from, to time.Time, mode string) ([]RunRecord, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "ended_at >= ?")
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		conds = append(conds, "ended_at <= ?")
		args = append(args, to.Unix())
	}
	if mode != "" {
		conds = append(conds, "mode = ?")
		args = append(args, mode)
	}
	query := "SELECT record FROM charge_runs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ended_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []RunRecord
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rec RunRecord
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

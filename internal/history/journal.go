// Package history keeps an optional SQLite journal of successful
// mutations. It is an independent subsystem: if it fails to open, the
// rest of the server keeps working and journaling is simply skipped.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Entry is one journaled operation.
type Entry struct {
	ID        int64  `json:"id"`
	Op        string `json:"op"`
	Tag       string `json:"tag"`
	Ref       string `json:"ref,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Journal is the SQLite-backed operation log. A nil *Journal is valid and
// turns every method into a no-op, so callers never need to branch on
// whether journaling is enabled.
type Journal struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	op TEXT NOT NULL,
	tag TEXT NOT NULL,
	ref TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations(created_at);
`

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record journals one successful operation. Best effort by contract —
// callers log failures and move on; a broken journal never fails a
// mutation that already succeeded.
func (j *Journal) Record(op, tag, ref, detail string) error {
	if j == nil {
		return nil
	}
	_, err := j.db.Exec(
		`INSERT INTO operations (op, tag, ref, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		op, tag, ref, detail, timeNow().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("history: record %s: %w", op, err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(
		`SELECT id, op, tag, ref, detail, created_at FROM operations ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Op, &e.Tag, &e.Ref, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate entries: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database. Safe on nil.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps seen keys in an insert-only SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite ledger: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite ledger: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	stmts, err := migrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite ledger: init schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// ReadAll implements Store.
func (s *SQLiteStore) ReadAll(ctx context.Context) (Set, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry FROM seen_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite ledger: query: %w", err)
	}
	defer rows.Close()

	set := make(Set)
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("sqlite ledger: scan: %w", err)
		}
		set.Add(entry)
	}
	return set, rows.Err()
}

// AppendLine implements Store.
func (s *SQLiteStore) AppendLine(ctx context.Context, line string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_entries (entry, created_at) VALUES (?, ?)`,
		line, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite ledger: insert: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Package sqlite implements the record store interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import SQLite driver
	_ "modernc.org/sqlite"

	"github.com/hublift/hublift/internal/store"
)

// Store implements store.Store backed by a single SQLite database file.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (creating if needed) the database at dbPath and applies the
// schema. Pass ":memory:" for an ephemeral database in tests.
func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; keep the pool at one connection so an in-memory
	// database is not silently sharded across connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeString formats a nullable time for storage.
func timeString(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a stored nullable time.
func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// parseID converts a scanned nullable foreign key.
func parseID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}

// nullID converts a nullable foreign key for storage.
func nullID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// exists runs an EXISTS query with the given arguments.
func (s *Store) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS ("+query+")", args...).Scan(&found)
	if err != nil {
		return false, err
	}
	return found, nil
}

// scalarID runs a single-id query, mapping sql.ErrNoRows to store.ErrNotFound.
func (s *Store) scalarID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

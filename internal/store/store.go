// Package store provides the SQLite storage layer for the engine.
//
// One database file holds everything the pipeline persists between runs:
// - the ontology (current payload plus timestamped backups)
// - the source registry, merged append-only across runs
// - per-run tier snapshots
// - the append-only audit event log
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.recall/recall.db"

// Store is the SQLite-backed persistence layer.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (or creates) the database at path and runs migrations.
// Pass ":memory:" for in-memory databases (testing).
func Open(path string) (*Store, error) {
	if path == "" {
		path = expandPath(DefaultDBPath)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, dbPath: path}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats holds observability counts for the store.
type Stats struct {
	OntologyBackups int64
	Sources         int64
	TierEntries     int64
	Events          int64
}

// Stats returns current database statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	queries := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM ontology_backups", &stats.OntologyBackups},
		{"SELECT COUNT(*) FROM sources", &stats.Sources},
		{"SELECT COUNT(*) FROM tier_entries", &stats.TierEntries},
		{"SELECT COUNT(*) FROM audit_events", &stats.Events},
	}

	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("querying stats (%s): %w", q.query, err)
		}
	}

	return stats, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

package store

import (
	"database/sql"
	"fmt"
)

// migrate creates all tables if they don't exist.
func (s *Store) migrate() error {
	bootstrapDone, err := s.isMetaFlagEnabled("schema_bootstrap_complete")
	if err != nil {
		return fmt.Errorf("checking bootstrap state: %w", err)
	}
	if bootstrapDone {
		return nil
	}

	if err := s.runBootstrapDDL(); err != nil {
		return err
	}

	if err := s.setMetaFlag("schema_bootstrap_complete"); err != nil {
		return fmt.Errorf("marking bootstrap complete: %w", err)
	}
	return nil
}

func (s *Store) runBootstrapDDL() error {
	statements := []string{
		// Current ontology payload. Single row, serialized JSON.
		`CREATE TABLE IF NOT EXISTS ontology (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			payload    TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Timestamped snapshots taken before every overwrite.
		`CREATE TABLE IF NOT EXISTS ontology_backups (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			payload    TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Source registry, merged append-only across runs.
		`CREATE TABLE IF NOT EXISTS sources (
			type      TEXT NOT NULL,
			id        TEXT NOT NULL,
			label     TEXT,
			count     INTEGER NOT NULL DEFAULT 0,
			last_seen TEXT,
			url       TEXT,
			subjects  TEXT,
			PRIMARY KEY (type, id)
		)`,

		// Per-run tier snapshots. position preserves assignment order.
		`CREATE TABLE IF NOT EXISTS tier_entries (
			run_id        TEXT NOT NULL,
			tier          INTEGER NOT NULL,
			position      INTEGER NOT NULL,
			primary_topic TEXT NOT NULL,
			core_belief   TEXT,
			excerpt       TEXT NOT NULL,
			provenance    TEXT NOT NULL,
			priority      INTEGER NOT NULL,
			role          TEXT,
			PRIMARY KEY (run_id, tier, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tier_entries_run ON tier_entries(run_id)`,

		// Append-only audit event log.
		`CREATE TABLE IF NOT EXISTS audit_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			stage      TEXT NOT NULL,
			detail     TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_run ON audit_events(run_id)`,

		// Schema metadata for migration tracking
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration %q: %w", truncate(stmt, 80), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	return nil
}

func (s *Store) isMetaFlagEnabled(key string) (bool, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}

func (s *Store) setMetaFlag(key string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, 'true')", key)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

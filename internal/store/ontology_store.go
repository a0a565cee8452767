package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hurttlocker/recall/internal/ontology"
)

// OntologyLoad is the outcome of loading the persisted ontology. A missing
// row is a clean bootstrap; a malformed payload resets to an empty ontology
// with Reset set, and the run continues.
type OntologyLoad struct {
	Ontology *ontology.Ontology
	Found    bool
	Reset    bool
	Err      error
}

// LoadOntology reads the current ontology payload. It never fails the run
// on content problems: corrupt JSON yields an empty ontology plus the parse
// error for the audit trail. Database errors are still returned.
func (s *Store) LoadOntology(ctx context.Context) (OntologyLoad, error) {
	out := OntologyLoad{Ontology: ontology.Empty()}

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM ontology WHERE id = 1").Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return out, nil
		}
		return out, fmt.Errorf("loading ontology: %w", err)
	}
	out.Found = true

	var ont ontology.Ontology
	if err := json.Unmarshal([]byte(payload), &ont); err != nil {
		out.Reset = true
		out.Err = fmt.Errorf("parsing ontology payload: %w", err)
		return out, nil
	}
	if ont.Categories == nil || ont.Map == nil || ont.ValueMap == nil {
		out.Reset = true
		out.Err = fmt.Errorf("ontology payload missing required maps")
		return out, nil
	}

	out.Ontology = &ont
	return out, nil
}

// SaveOntology persists the ontology, snapshotting the previous payload into
// ontology_backups first so no overwrite is destructive.
func (s *Store) SaveOntology(ctx context.Context, ont *ontology.Ontology) error {
	payload, err := json.Marshal(ont)
	if err != nil {
		return fmt.Errorf("encoding ontology: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ontology save: %w", err)
	}
	defer tx.Rollback()

	var prev string
	err = tx.QueryRowContext(ctx, "SELECT payload FROM ontology WHERE id = 1").Scan(&prev)
	switch {
	case err == sql.ErrNoRows:
		// First save, nothing to back up.
	case err != nil:
		return fmt.Errorf("reading previous ontology: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ontology_backups (payload, created_at) VALUES (?, ?)",
			prev, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("backing up ontology: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ontology (id, payload, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("saving ontology: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ontology save: %w", err)
	}
	return nil
}

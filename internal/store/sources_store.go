package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hurttlocker/recall/internal/ontology"
)

// MergeSources folds newly discovered sources into the registry: counts are
// summed, last_seen keeps the maximum, label and url fill in only when the
// stored row is missing them. Rows are never deleted.
func (s *Store) MergeSources(ctx context.Context, records []ontology.SourceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning source merge: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sources (type, id, label, count, last_seen, url, subjects)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(type, id) DO UPDATE SET
			   count     = sources.count + excluded.count,
			   last_seen = MAX(COALESCE(sources.last_seen, ''), COALESCE(excluded.last_seen, '')),
			   label     = CASE WHEN COALESCE(sources.label, '') = '' THEN excluded.label ELSE sources.label END,
			   url       = CASE WHEN COALESCE(sources.url, '') = '' THEN excluded.url ELSE sources.url END,
			   subjects  = CASE WHEN COALESCE(sources.subjects, '') = '' THEN excluded.subjects ELSE sources.subjects END`,
			r.Type, r.ID, r.Label, r.Count, r.LastSeen, r.URL, strings.Join(r.Subjects, ","),
		); err != nil {
			return fmt.Errorf("merging source %s/%s: %w", r.Type, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing source merge: %w", err)
	}
	return nil
}

// ListSources returns the full registry ordered by (type, id), matching the
// deterministic ordering the discovery pass uses.
func (s *Store) ListSources(ctx context.Context) ([]ontology.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT type, id, label, count, last_seen, url, subjects FROM sources ORDER BY type, id")
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []ontology.SourceRecord
	for rows.Next() {
		var r ontology.SourceRecord
		var label, lastSeen, url, subjects sql.NullString
		if err := rows.Scan(&r.Type, &r.ID, &label, &r.Count, &lastSeen, &url, &subjects); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		r.Label = label.String
		r.LastSeen = lastSeen.String
		r.URL = url.String
		if subjects.String != "" {
			r.Subjects = strings.Split(subjects.String, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

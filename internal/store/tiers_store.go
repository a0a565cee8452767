package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hurttlocker/recall/internal/tier"
)

// SaveTiers snapshots the full tier state under a run id. Re-saving the same
// run id replaces that run's snapshot.
func (s *Store) SaveTiers(ctx context.Context, runID string, tiers *tier.Tiers) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tier save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tier_entries WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("clearing tier snapshot %s: %w", runID, err)
	}

	for tierN := tier.Tier0; tierN <= tier.Tier3; tierN++ {
		for pos, e := range tiers.Entries(tierN) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tier_entries (run_id, tier, position, primary_topic, core_belief, excerpt, provenance, priority, role)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, tierN, pos, e.PrimaryTopic, e.CoreBelief, e.Excerpt, e.Provenance, e.Priority, e.Role,
			); err != nil {
				return fmt.Errorf("saving tier %d entry %d: %w", tierN, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tier save: %w", err)
	}
	return nil
}

// LoadTiers reads a run's tier snapshot in assignment order.
func (s *Store) LoadTiers(ctx context.Context, runID string) (*tier.Tiers, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tier, primary_topic, core_belief, excerpt, provenance, priority, role
		 FROM tier_entries WHERE run_id = ? ORDER BY tier, position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading tier snapshot %s: %w", runID, err)
	}
	defer rows.Close()

	tiers := &tier.Tiers{}
	for rows.Next() {
		var tierN int
		var e tier.Entry
		var belief, role sql.NullString
		if err := rows.Scan(&tierN, &e.PrimaryTopic, &belief, &e.Excerpt, &e.Provenance, &e.Priority, &role); err != nil {
			return nil, fmt.Errorf("scanning tier entry: %w", err)
		}
		e.CoreBelief = belief.String
		e.Role = role.String
		if tierN < tier.Tier0 || tierN > tier.Tier3 {
			return nil, fmt.Errorf("tier snapshot %s holds invalid tier %d", runID, tierN)
		}
		tiers.Levels[tierN] = append(tiers.Levels[tierN], e)
	}
	return tiers, rows.Err()
}

// LatestRunID returns the run id of the most recent tier snapshot, or empty
// when none exists.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		"SELECT run_id FROM tier_entries ORDER BY run_id DESC LIMIT 1").Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("finding latest run: %w", err)
	}
	return runID, nil
}

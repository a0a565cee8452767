package store

import (
	"context"
	"fmt"
	"time"
)

// Event is one entry in the append-only audit log. Every fail-open fallback,
// reset, skip, and applied transition gets one.
type Event struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEvent appends an audit event.
func (s *Store) LogEvent(ctx context.Context, e *Event) error {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_events (run_id, stage, detail, created_at) VALUES (?, ?, ?, ?)",
		e.RunID, e.Stage, e.Detail, now,
	)
	if err != nil {
		return fmt.Errorf("logging event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting event id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	return nil
}

// RecentEvents returns the newest events first, capped at limit.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, stage, detail, created_at
		 FROM audit_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

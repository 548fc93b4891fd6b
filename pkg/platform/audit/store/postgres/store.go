package postgres

import (
	"context"
	"database/sql"
	"fmt"

	id "territorial/pkg/domain"
	"territorial/pkg/platform/audit"
)

// Store writes audit events to the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, ev audit.Event) error {
	const query = `
		INSERT INTO audit_events (id, action, actor_id, subject_id, congregation_id, request_id, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, string(ev.Action), ev.ActorID.String(), ev.SubjectID,
		ev.CongregationID.String(), ev.RequestID, ev.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns the newest events about subjectID first.
func (s *Store) ListBySubject(ctx context.Context, subjectID string, limit int) ([]audit.Event, error) {
	const query = `
		SELECT id, action, actor_id, subject_id, congregation_id, request_id, at
		FROM audit_events
		WHERE subject_id = $1
		ORDER BY at DESC
		LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			ev           audit.Event
			action       string
			actor, congr string
		)
		if err := rows.Scan(&ev.ID, &action, &actor, &ev.SubjectID, &congr, &ev.RequestID, &ev.At); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.Action = audit.Action(action)
		ev.ActorID = id.UserID(actor)
		ev.CongregationID = id.CongregationID(congr)
		out = append(out, ev)
	}
	return out, rows.Err()
}

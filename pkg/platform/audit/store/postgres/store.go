package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "intake/pkg/platform/audit"
)

const (
	columns = `id, category, timestamp, action, subject, decision, reason, request_id, actor_id`

	defaultListLimit = 100
)

// Store keeps the audit trail in audit_events so it survives restarts and is
// shared by every instance.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes event. A missing ID is generated and a missing category is
// derived from the action. Replays of the same ID are ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, string(event.Category), event.Timestamp, event.Action, event.Subject,
		event.Decision, event.Reason, event.RequestID, event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM audit_events ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	events := make([]audit.Event, 0, limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (audit.Event, error) {
	var (
		e        audit.Event
		category string
	)
	if err := rows.Scan(&e.ID, &category, &e.Timestamp, &e.Action, &e.Subject,
		&e.Decision, &e.Reason, &e.RequestID, &e.ActorID); err != nil {
		return audit.Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	e.Category = audit.EventCategory(category)
	return e, nil
}

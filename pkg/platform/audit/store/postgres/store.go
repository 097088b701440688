// Package postgres persists audit events in PostgreSQL through database/sql.
// Open the handle with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	audit "registrar/pkg/platform/audit"
	txcontext "registrar/pkg/platform/tx"
)

// Schema creates the audit table and its lookup indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS registration_audit (
	id          TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	event_id    TEXT NOT NULL DEFAULT '',
	attendee_id TEXT NOT NULL DEFAULT '',
	payment_id  TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	decision    TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	actor_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS registration_audit_attendee_idx ON registration_audit (attendee_id, occurred_at);
CREATE INDEX IF NOT EXISTS registration_audit_action_idx ON registration_audit (action, occurred_at);
`

const selectColumns = `
	SELECT id, category, occurred_at, action, event_id, attendee_id, payment_id,
		   subject, decision, reason, request_id, actor_id
	FROM registration_audit
`

// Store implements audit.Store.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an event. Re-delivery of the same ID is ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO registration_audit (
			id, category, occurred_at, action, event_id, attendee_id, payment_id,
			subject, decision, reason, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		string(event.Action.Category()),
		event.Timestamp,
		string(event.Action),
		event.EventID,
		event.AttendeeID,
		event.PaymentID,
		event.Subject,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByAttendee returns an attendee's events, oldest first.
func (s *Store) ListByAttendee(ctx context.Context, attendeeID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`WHERE attendee_id = $1 ORDER BY occurred_at ASC`, attendeeID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByActions returns events with any of the given actions, oldest first.
func (s *Store) ListByActions(ctx context.Context, actions ...audit.Action) ([]audit.Event, error) {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`WHERE action = ANY($1) ORDER BY occurred_at ASC`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			category string
			action   string
		)
		err := rows.Scan(
			&e.ID,
			&category,
			&e.Timestamp,
			&action,
			&e.EventID,
			&e.AttendeeID,
			&e.PaymentID,
			&e.Subject,
			&e.Decision,
			&e.Reason,
			&e.RequestID,
			&e.ActorID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.Action = audit.Action(action)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

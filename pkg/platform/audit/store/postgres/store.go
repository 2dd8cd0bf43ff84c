package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	audit "attestry/pkg/platform/audit"
	txcontext "attestry/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table and forwarded to Kafka by the audit
// worker; the table is the durable record.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
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

// outboxPayload is the JSON structure stored alongside the indexed columns.
type outboxPayload struct {
	ID            string `json:"ID"`
	Category      string `json:"Category"`
	Timestamp     string `json:"Timestamp"`
	Actor         string `json:"Actor,omitempty"`
	Subject       string `json:"Subject"`
	Action        string `json:"Action"`
	CertificateID string `json:"CertificateID,omitempty"`
	Recipient     string `json:"Recipient,omitempty"`
	ContentHash   string `json:"ContentHash,omitempty"`
	Reason        string `json:"Reason,omitempty"`
	RequestID     string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload := outboxPayload{
		ID:            event.ID.String(),
		Category:      string(event.Category),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:         event.Actor,
		Subject:       event.Subject,
		Action:        event.Action,
		CertificateID: event.CertificateID,
		Recipient:     event.Recipient,
		ContentHash:   event.ContentHash,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	const query = `
		INSERT INTO audit_outbox (id, category, subject, action, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID, string(event.Category), event.Subject, event.Action, event.Timestamp, body,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events for a subject identity, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	const query = `
		SELECT payload FROM audit_outbox
		WHERE subject = $1
		ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := decodePayload(body)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func decodePayload(body []byte) (audit.Event, error) {
	var payload outboxPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return audit.Event{}, fmt.Errorf("unmarshal audit event: %w", err)
	}
	event := audit.Event{
		Category:      audit.EventCategory(payload.Category),
		Actor:         payload.Actor,
		Subject:       payload.Subject,
		Action:        payload.Action,
		CertificateID: payload.CertificateID,
		Recipient:     payload.Recipient,
		ContentHash:   payload.ContentHash,
		Reason:        payload.Reason,
		RequestID:     payload.RequestID,
	}
	if id, err := parseUUID(payload.ID); err == nil {
		event.ID = id
	}
	if ts, err := parseTimestamp(payload.Timestamp); err == nil {
		event.Timestamp = ts
	}
	return event, nil
}

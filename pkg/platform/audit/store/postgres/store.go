package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "atrium/pkg/platform/audit"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events land in the outbox table; the Kafka relay drains them. When no
// broker is configured the outbox doubles as the queryable event log.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store writing to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// payload is the JSON body relayed to Kafka. Field names match audit.Event so
// downstream consumers deserialize it directly.
type payload struct {
	ID          string `json:"ID"`
	Category    string `json:"Category"`
	Timestamp   string `json:"Timestamp"`
	PrincipalID string `json:"PrincipalID,omitempty"`
	TenantID    string `json:"TenantID,omitempty"`
	Subject     string `json:"Subject,omitempty"`
	Action      string `json:"Action"`
	Decision    string `json:"Decision,omitempty"`
	Reason      string `json:"Reason,omitempty"`
	Email       string `json:"Email,omitempty"`
	RequestID   string `json:"RequestID,omitempty"`
	ActorID     string `json:"ActorID,omitempty"`
	Device      string `json:"Device,omitempty"`
	IP          string `json:"IP,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Category always derives from action; the event map is the source of truth.
	category := audit.AuditEvent(event.Action).Category()

	body := payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		Email:     event.Email,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
		Device:    event.Device,
		IP:        event.IP,
	}
	if !event.PrincipalID.IsNil() {
		body.PrincipalID = event.PrincipalID.String()
	}
	if !event.TenantID.IsNil() {
		body.TenantID = event.TenantID.String()
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.PrincipalID.IsNil() {
		aggregateType = "principal"
		aggregateID = event.PrincipalID.String()
	} else if !event.TenantID.IsNil() {
		aggregateType = "tenant"
		aggregateID = event.TenantID.String()
	}

	query := `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query,
		eventID, aggregateType, aggregateID, event.Action, bodyBytes, time.Now(),
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// PendingEntry is an outbox row awaiting relay to Kafka.
type PendingEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// ListPending returns up to limit unpublished outbox rows, oldest first.
func (s *Store) ListPending(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []PendingEntry
	for rows.Next() {
		var e PendingEntry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished stamps outbox rows as relayed. Idempotent.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, entryID := range ids {
		raw[i] = entryID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox
		SET published_at = $2
		WHERE id = ANY($1::uuid[]) AND published_at IS NULL
	`, pq.Array(raw), publishedAt)
	if err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}

// Package outbox stores events written in the same transaction as the state
// change they describe, for later publication.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/db"

	"github.com/google/uuid"
)

type Event struct {
	ID          int64
	EventID     uuid.UUID
	EventType   string
	AggregateID string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

type Repository interface {
	Insert(ctx context.Context, q db.Querier, e *Event) error
	// FetchPending locks up to limit unsent events; q must be a transaction.
	FetchPending(ctx context.Context, q db.Querier, limit int) ([]Event, error)
	MarkSent(ctx context.Context, q db.Querier, ids []int64) error
}

type postgresRepo struct{}

func NewPostgres() Repository {
	return postgresRepo{}
}

func (postgresRepo) Insert(ctx context.Context, q db.Querier, e *Event) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	const stmt = `
INSERT INTO outbox (event_id, event_type, aggregate_id, payload)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`
	return q.QueryRow(ctx, stmt, e.EventID, e.EventType, e.AggregateID, []byte(e.Payload)).Scan(&e.ID, &e.CreatedAt)
}

func (postgresRepo) FetchPending(ctx context.Context, q db.Querier, limit int) ([]Event, error) {
	const stmt = `
SELECT id, event_id, event_type, aggregate_id, payload, created_at
FROM outbox
WHERE sent_at IS NULL
ORDER BY id
LIMIT $1
FOR UPDATE SKIP LOCKED
`
	rows, err := q.Query(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.AggregateID, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}

func (postgresRepo) MarkSent(ctx context.Context, q db.Querier, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = ANY($1)`, ids)
	return err
}

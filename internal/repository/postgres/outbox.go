package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
)

// maxOutboxRetries is how many publish failures an event survives before it
// is parked as failed.
const maxOutboxRetries = 5

// outboxClaimLease is how long a claimed event may stay in processing before
// another worker takes it over.
const outboxClaimLease = 5 * time.Minute

type outboxRow struct {
	ID           uuid.UUID      `db:"id"`
	EventType    string         `db:"event_type"`
	Payload      []byte         `db:"payload"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	RetryCount   int            `db:"retry_count"`
	CreatedAt    time.Time      `db:"created_at"`
	ProcessedAt  sql.NullTime   `db:"processed_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r outboxRow) toModel() *model.OutboxEvent {
	e := &model.OutboxEvent{
		ID:         r.ID,
		EventType:  r.EventType,
		Payload:    json.RawMessage(r.Payload),
		Status:     model.OutboxStatus(r.Status),
		RetryCount: r.RetryCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.ErrorMessage.Valid {
		msg := r.ErrorMessage.String
		e.ErrorMessage = &msg
	}
	if r.ProcessedAt.Valid {
		t := r.ProcessedAt.Time
		e.ProcessedAt = &t
	}
	return e
}

type OutboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) *OutboxRepository {
	return &OutboxRepository{base}
}

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, 0, $5, $6
		)
	`
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	event.Status = model.OutboxStatusPending

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// ClaimPending flips a batch to processing under SKIP LOCKED so concurrent
// workers never publish the same event. Events left in processing past the
// claim lease are reclaimed.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = $1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
				OR (status = $1 AND updated_at < $4)
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $3
		)
		RETURNING id, event_type, payload, status, error_message, retry_count,
			created_at, processed_at, updated_at
	`
	var rows []outboxRow
	err := r.db.SelectContext(ctx, &rows, query,
		model.OutboxStatusProcessing, model.OutboxStatusPending, limit,
		time.Now().Add(-outboxClaimLease))
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending events: %w", err)
	}

	events := make([]*model.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel())
	}
	return events, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, processed_at = NOW(), updated_at = NOW(), error_message = NULL
		WHERE id = $2`,
		model.OutboxStatusProcessed, id)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// MarkFailed records the error. With retry set the event goes back to
// pending until it has failed maxOutboxRetries times.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retry bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			status = CASE WHEN $1 AND retry_count + 1 < $2 THEN $3 ELSE $4 END,
			error_message = $5,
			updated_at = NOW()
		WHERE id = $6`,
		retry, maxOutboxRetries, model.OutboxStatusPending, model.OutboxStatusFailed, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed'
		AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}

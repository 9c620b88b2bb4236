package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/petify/petify-api/internal/model"
)

type conversationRow struct {
	ID              uuid.UUID      `db:"id"`
	CustomerID      uuid.UUID      `db:"customer_id"`
	ProviderID      uuid.UUID      `db:"provider_id"`
	LastMessageAt   sql.NullTime   `db:"last_message_at"`
	CreatedAt       time.Time      `db:"created_at"`
	ProviderOwnerID uuid.UUID      `db:"provider_owner_id"`
	ProviderName    string         `db:"provider_name"`
	ProviderLogoURL sql.NullString `db:"provider_logo_url"`
}

func (r conversationRow) toModel() *model.Conversation {
	c := &model.Conversation{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		ProviderID: r.ProviderID,
		CreatedAt:  r.CreatedAt,
		Provider: &model.ProviderSummary{
			ID:           r.ProviderID,
			OwnerID:      r.ProviderOwnerID,
			BusinessName: r.ProviderName,
			LogoURL:      r.ProviderLogoURL.String,
		},
	}
	if r.LastMessageAt.Valid {
		t := r.LastMessageAt.Time
		c.LastMessageAt = &t
	}
	return c
}

type messageRow struct {
	ID             uuid.UUID `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id"`
	Body           string    `db:"body"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r messageRow) toModel() *model.Message {
	return &model.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Body:           r.Body,
		CreatedAt:      r.CreatedAt,
	}
}

const conversationSelect = `
	SELECT c.id, c.customer_id, c.provider_id, c.last_message_at, c.created_at,
		p.owner_id AS provider_owner_id, p.business_name AS provider_name,
		p.logo_url AS provider_logo_url
	FROM conversations c
	JOIN providers p ON p.id = c.provider_id`

type ConversationRepository struct {
	BaseRepository
}

func NewConversationRepository(base BaseRepository) *ConversationRepository {
	return &ConversationRepository{base}
}

func (r *ConversationRepository) GetOrCreate(ctx context.Context, customerID, providerID uuid.UUID) (*model.Conversation, error) {
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO conversations (id, customer_id, provider_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id, provider_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING id`,
		uuid.New(), customerID, providerID, time.Now())
	if err != nil {
		return nil, mapError(err, "get or create conversation")
	}
	return r.Get(ctx, id)
}

func (r *ConversationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var row conversationRow
	if err := r.db.GetContext(ctx, &row, conversationSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, mapError(err, "get conversation")
	}
	return row.toModel(), nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error) {
	var rows []conversationRow
	err := r.db.SelectContext(ctx, &rows, conversationSelect+`
		WHERE c.customer_id = $1 OR p.owner_id = $1
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC`, userID)
	if err != nil {
		return nil, mapError(err, "list conversations")
	}

	conversations := make([]*model.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, row.toModel())
	}
	return conversations, nil
}

// ListMessages returns messages oldest first, paging backwards from before.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]*model.Message, error) {
	if limit <= 0 || limit > model.MaxPageSize {
		limit = model.DefaultPageSize
	}
	cutoff := time.Now().Add(time.Minute)
	if before != nil {
		cutoff = *before
	}

	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, conversation_id, sender_id, body, created_at FROM (
			SELECT id, conversation_id, sender_id, body, created_at
			FROM messages
			WHERE conversation_id = $1 AND created_at < $2
			ORDER BY created_at DESC
			LIMIT $3
		) m ORDER BY created_at ASC`, conversationID, cutoff, limit)
	if err != nil {
		return nil, mapError(err, "list messages")
	}

	messages := make([]*model.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toModel())
	}
	return messages, nil
}

func (r *ConversationRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, conversation_id, sender_id, body, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			msg.ID, msg.ConversationID, msg.SenderID, msg.Body, msg.CreatedAt)
		if err != nil {
			return mapError(err, "create message")
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE conversations SET last_message_at = $1 WHERE id = $2`,
			msg.CreatedAt, msg.ConversationID)
		return mapError(err, "touch conversation")
	})
}

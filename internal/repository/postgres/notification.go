package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/petify/petify-api/internal/model"
)

type notificationRow struct {
	ID        uuid.UUID      `db:"id"`
	UserID    uuid.UUID      `db:"user_id"`
	Type      string         `db:"type"`
	Title     string         `db:"title"`
	Body      sql.NullString `db:"body"`
	Data      types.JSONText `db:"data"`
	ReadAt    sql.NullTime   `db:"read_at"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r notificationRow) toModel() *model.Notification {
	n := &model.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      model.NotificationType(r.Type),
		Title:     r.Title,
		Body:      r.Body.String,
		Data:      model.JSONMap{},
		CreatedAt: r.CreatedAt,
	}
	if len(r.Data) > 0 {
		// A malformed payload is not worth failing the listing for.
		_ = r.Data.Unmarshal(&n.Data)
	}
	if r.ReadAt.Valid {
		t := r.ReadAt.Time
		n.ReadAt = &t
	}
	return n
}

type NotificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) *NotificationRepository {
	return &NotificationRepository{base}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	n.ID = uuid.New()
	n.CreatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Type, n.Title, nullString(n.Body), types.JSONText(data), n.CreatedAt)
	return mapError(err, "create notification")
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > model.MaxPageSize {
		limit = model.DefaultPageSize
	}

	q := newQuery(`SELECT id, user_id, type, title, body, data, read_at, created_at FROM notifications WHERE 1=1`)
	q.where("user_id = ?", userID)
	if unreadOnly {
		q.where("read_at IS NULL")
	}
	q.suffix(" ORDER BY created_at DESC LIMIT ?", limit)

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q.sql()), q.args...); err != nil {
		return nil, mapError(err, "list notifications")
	}

	out := make([]*model.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, $1)
		WHERE id = $2 AND user_id = $3`,
		time.Now(), id, userID)
	if err != nil {
		return mapError(err, "mark notification read")
	}
	return expectRows(res, "mark notification read")
}

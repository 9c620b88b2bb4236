package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/petify/petify-api/internal/model"
)

type reviewRow struct {
	ID           uuid.UUID      `db:"id"`
	ProviderID   uuid.UUID      `db:"provider_id"`
	CustomerID   uuid.UUID      `db:"customer_id"`
	CustomerName sql.NullString `db:"customer_name"`
	Rating       int            `db:"rating"`
	Comment      sql.NullString `db:"comment"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r reviewRow) toModel() *model.Review {
	return &model.Review{
		ID:           r.ID,
		ProviderID:   r.ProviderID,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName.String,
		Rating:       r.Rating,
		Comment:      r.Comment.String,
		CreatedAt:    r.CreatedAt,
	}
}

type ReviewRepository struct {
	BaseRepository
}

func NewReviewRepository(base BaseRepository) *ReviewRepository {
	return &ReviewRepository{base}
}

func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	review.ID = uuid.New()
	review.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (id, provider_id, customer_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			review.ID, review.ProviderID, review.CustomerID, review.Rating,
			nullString(review.Comment), review.CreatedAt,
		)
		if err != nil {
			return mapError(err, "create review")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE providers p
			SET rating = agg.avg_rating, review_count = agg.n, updated_at = $2
			FROM (
				SELECT AVG(rating)::numeric(3,2) AS avg_rating, COUNT(*) AS n
				FROM reviews WHERE provider_id = $1
			) agg
			WHERE p.id = $1`,
			review.ProviderID, review.CreatedAt,
		)
		return mapError(err, "refresh provider rating")
	})
}

func (r *ReviewRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		limit = model.DefaultPageSize
	}

	var rows []reviewRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT r.id, r.provider_id, r.customer_id, pr.full_name AS customer_name,
			r.rating, r.comment, r.created_at
		FROM reviews r
		LEFT JOIN profiles pr ON pr.id = r.customer_id
		WHERE r.provider_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2`, providerID, limit)
	if err != nil {
		return nil, mapError(err, "list reviews")
	}

	reviews := make([]*model.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toModel())
	}
	return reviews, nil
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
)

type favoriteRow struct {
	UserID          uuid.UUID      `db:"user_id"`
	ProviderID      uuid.UUID      `db:"provider_id"`
	CreatedAt       time.Time      `db:"created_at"`
	ProviderOwnerID uuid.UUID      `db:"provider_owner_id"`
	ProviderName    string         `db:"provider_name"`
	ProviderLogoURL sql.NullString `db:"provider_logo_url"`
}

func (r favoriteRow) toModel() *model.Favorite {
	return &model.Favorite{
		UserID:     r.UserID,
		ProviderID: r.ProviderID,
		CreatedAt:  r.CreatedAt,
		Provider: &model.ProviderSummary{
			ID:           r.ProviderID,
			OwnerID:      r.ProviderOwnerID,
			BusinessName: r.ProviderName,
			LogoURL:      r.ProviderLogoURL.String,
		},
	}
}

type FavoriteRepository struct {
	BaseRepository
}

func NewFavoriteRepository(base BaseRepository) *FavoriteRepository {
	return &FavoriteRepository{base}
}

func (r *FavoriteRepository) List(ctx context.Context, userID uuid.UUID) ([]*model.Favorite, error) {
	var rows []favoriteRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT f.user_id, f.provider_id, f.created_at, p.owner_id AS provider_owner_id,
			p.business_name AS provider_name, p.logo_url AS provider_logo_url
		FROM favorites f
		JOIN providers p ON p.id = f.provider_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, mapError(err, "list favorites")
	}

	favorites := make([]*model.Favorite, 0, len(rows))
	for _, row := range rows {
		favorites = append(favorites, row.toModel())
	}
	return favorites, nil
}

// Add is idempotent.
func (r *FavoriteRepository) Add(ctx context.Context, userID, providerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, provider_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, provider_id) DO NOTHING`,
		userID, providerID, time.Now())
	return mapError(err, "add favorite")
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, providerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND provider_id = $2`, userID, providerID)
	if err != nil {
		return mapError(err, "remove favorite")
	}
	return expectRows(res, "remove favorite")
}

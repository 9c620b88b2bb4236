package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
)

type profileRow struct {
	ID        uuid.UUID      `db:"id"`
	Email     string         `db:"email"`
	FullName  sql.NullString `db:"full_name"`
	AvatarURL sql.NullString `db:"avatar_url"`
	Phone     sql.NullString `db:"phone"`
	Role      string         `db:"role"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r profileRow) toModel() *model.Profile {
	return &model.Profile{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName.String,
		AvatarURL: r.AvatarURL.String,
		Phone:     r.Phone.String,
		Role:      model.Role(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const profileColumns = `id, email, full_name, avatar_url, phone, role, created_at, updated_at`

type ProfileRepository struct {
	BaseRepository
}

func NewProfileRepository(base BaseRepository) *ProfileRepository {
	return &ProfileRepository{base}
}

func (r *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, mapError(err, "get profile")
	}
	return row.toModel(), nil
}

// GetRole reads the stored role only. It is called on every admin request.
func (r *ProfileRepository) GetRole(ctx context.Context, id uuid.UUID) (model.Role, error) {
	var role string
	if err := r.db.GetContext(ctx, &role, `SELECT role FROM profiles WHERE id = $1`, id); err != nil {
		return "", mapError(err, "get profile role")
	}
	return model.Role(role), nil
}

func (r *ProfileRepository) List(ctx context.Context, filters *model.ProfileFilters) ([]*model.Profile, error) {
	if filters == nil {
		filters = &model.ProfileFilters{}
	}
	page := filters.Pagination.Normalize()

	q := newQuery(`SELECT ` + profileColumns + ` FROM profiles WHERE 1=1`)
	if filters.Role != "" {
		q.where("role = ?", filters.Role)
	}
	if filters.Search != "" {
		q.where("(email ILIKE ? OR full_name ILIKE ?)", "%"+filters.Search+"%", "%"+filters.Search+"%")
	}
	q.suffix(" ORDER BY created_at DESC LIMIT ? OFFSET ?", page.Limit, page.Offset)

	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q.sql()), q.args...); err != nil {
		return nil, mapError(err, "list profiles")
	}

	profiles := make([]*model.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toModel())
	}
	return profiles, nil
}

func (r *ProfileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET role = $1, updated_at = $2 WHERE id = $3`,
		role, time.Now(), id)
	if err != nil {
		return mapError(err, "update profile role")
	}
	return expectRows(res, "update profile role")
}

func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles`); err != nil {
		return 0, mapError(err, "count profiles")
	}
	return n, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/petify/petify-api/internal/model"
)

type providerRow struct {
	ID                uuid.UUID       `db:"id"`
	OwnerID           uuid.UUID       `db:"owner_id"`
	Category          string          `db:"category"`
	Status            string          `db:"status"`
	BusinessName      string          `db:"business_name"`
	Description       sql.NullString  `db:"description"`
	ContactEmail      sql.NullString  `db:"contact_email"`
	ContactPhone      sql.NullString  `db:"contact_phone"`
	Address           sql.NullString  `db:"address"`
	LocationMode      string          `db:"location_mode"`
	Addresses         types.JSONText  `db:"addresses"`
	LogoURL           sql.NullString  `db:"logo_url"`
	CoverURL          sql.NullString  `db:"cover_url"`
	Photos            pq.StringArray  `db:"photos"`
	BasePrice         sql.NullFloat64 `db:"base_price"`
	HourlyRate        sql.NullFloat64 `db:"hourly_rate"`
	Currency          string          `db:"currency"`
	Availability      types.JSONText  `db:"availability"`
	Rating            sql.NullFloat64 `db:"rating"`
	ReviewCount       int             `db:"review_count"`
	TermsAcceptedAt   sql.NullTime    `db:"terms_accepted_at"`
	PrivacyAcceptedAt sql.NullTime    `db:"privacy_accepted_at"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (r providerRow) toModel() (*model.Provider, error) {
	addresses := []model.Address{}
	if len(r.Addresses) > 0 {
		if err := r.Addresses.Unmarshal(&addresses); err != nil {
			return nil, fmt.Errorf("failed to decode provider addresses: %w", err)
		}
	}
	availability := []model.DayHours{}
	if len(r.Availability) > 0 {
		if err := r.Availability.Unmarshal(&availability); err != nil {
			return nil, fmt.Errorf("failed to decode provider availability: %w", err)
		}
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	if availability == nil {
		availability = []model.DayHours{}
	}

	return &model.Provider{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Category:          model.ProviderCategory(r.Category),
		Status:            model.ProviderStatus(r.Status),
		BusinessName:      r.BusinessName,
		Description:       r.Description.String,
		ContactEmail:      r.ContactEmail.String,
		ContactPhone:      r.ContactPhone.String,
		Address:           r.Address.String,
		LocationMode:      model.LocationMode(r.LocationMode),
		Addresses:         addresses,
		LogoURL:           r.LogoURL.String,
		CoverURL:          r.CoverURL.String,
		Photos:            stringsOrEmpty(r.Photos),
		BasePrice:         r.BasePrice.Float64,
		HourlyRate:        r.HourlyRate.Float64,
		Currency:          r.Currency,
		Availability:      availability,
		Rating:            r.Rating.Float64,
		ReviewCount:       r.ReviewCount,
		TermsAcceptedAt:   r.TermsAcceptedAt.Time,
		PrivacyAcceptedAt: r.PrivacyAcceptedAt.Time,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

type serviceRow struct {
	ID              uuid.UUID       `db:"id"`
	ProviderID      uuid.UUID       `db:"provider_id"`
	Name            string          `db:"name"`
	Description     sql.NullString  `db:"description"`
	Kind            string          `db:"kind"`
	Price           sql.NullFloat64 `db:"price"`
	DurationMinutes sql.NullInt32   `db:"duration_minutes"`
	Gallery         pq.StringArray  `db:"gallery"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r serviceRow) toModel() *model.Service {
	return &model.Service{
		ID:              r.ID,
		ProviderID:      r.ProviderID,
		Name:            r.Name,
		Description:     r.Description.String,
		Kind:            model.ServiceKind(r.Kind),
		Price:           r.Price.Float64,
		DurationMinutes: int(r.DurationMinutes.Int32),
		Gallery:         stringsOrEmpty(r.Gallery),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const (
	providerColumns = `id, owner_id, category, status, business_name, description, contact_email,
		contact_phone, address, location_mode, addresses, logo_url, cover_url, photos, base_price,
		hourly_rate, currency, availability, rating, review_count, terms_accepted_at,
		privacy_accepted_at, created_at, updated_at`
	serviceColumns = `id, provider_id, name, description, kind, price, duration_minutes, gallery,
		created_at, updated_at`
)

type ProviderRepository struct {
	BaseRepository
}

func NewProviderRepository(base BaseRepository) *ProviderRepository {
	return &ProviderRepository{base}
}

func (r *ProviderRepository) CreateWithServices(ctx context.Context, p *model.Provider, services []*model.Service) error {
	addresses, err := json.Marshal(p.Addresses)
	if err != nil {
		return fmt.Errorf("failed to encode addresses: %w", err)
	}
	availability, err := json.Marshal(p.Availability)
	if err != nil {
		return fmt.Errorf("failed to encode availability: %w", err)
	}

	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO providers (
				id, owner_id, category, status, business_name, description, contact_email,
				contact_phone, address, location_mode, addresses, logo_url, cover_url, photos,
				base_price, hourly_rate, currency, availability, terms_accepted_at,
				privacy_accepted_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
				$17, $18, $19, $20, $21, $22)`,
			p.ID, p.OwnerID, p.Category, p.Status, p.BusinessName,
			nullString(p.Description), nullString(p.ContactEmail), nullString(p.ContactPhone),
			nullString(p.Address), p.LocationMode, types.JSONText(addresses),
			nullString(p.LogoURL), nullString(p.CoverURL), pq.StringArray(p.Photos),
			nullFloat(p.BasePrice), nullFloat(p.HourlyRate), p.Currency, types.JSONText(availability),
			p.TermsAcceptedAt, p.PrivacyAcceptedAt, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return mapError(err, "create provider")
		}

		for _, s := range services {
			s.ID = uuid.New()
			s.ProviderID = p.ID
			s.CreatedAt = now
			s.UpdatedAt = now
			_, err := tx.ExecContext(ctx, `
				INSERT INTO services (
					id, provider_id, name, description, kind, price, duration_minutes, gallery,
					created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				s.ID, s.ProviderID, s.Name, nullString(s.Description), s.Kind, s.Price,
				nullInt(s.DurationMinutes), pq.StringArray(s.Gallery), s.CreatedAt, s.UpdatedAt,
			)
			if err != nil {
				return mapError(err, "create service")
			}
		}
		return nil
	})
}

func (r *ProviderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	var row providerRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "get provider")
	}
	return row.toModel()
}

func (r *ProviderRepository) List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error) {
	if filters == nil {
		filters = &model.ProviderFilters{}
	}
	page := filters.Pagination.Normalize()

	q := newQuery(`SELECT ` + providerColumns + ` FROM providers WHERE 1=1`)
	if filters.Status != "" {
		q.where("status = ?", filters.Status)
	}
	if filters.Category != "" {
		q.where("category = ?", filters.Category)
	}
	if filters.City != "" {
		q.where("EXISTS (SELECT 1 FROM jsonb_array_elements(addresses) a WHERE a->>'city' ILIKE ?)", filters.City)
	}
	q.suffix(" ORDER BY rating DESC, created_at DESC LIMIT ? OFFSET ?", page.Limit, page.Offset)

	var rows []providerRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q.sql()), q.args...); err != nil {
		return nil, mapError(err, "list providers")
	}

	providers := make([]*model.Provider, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func (r *ProviderRepository) ListServices(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error) {
	var rows []serviceRow
	query := `SELECT ` + serviceColumns + ` FROM services WHERE provider_id = $1 ORDER BY kind, name`
	if err := r.db.SelectContext(ctx, &rows, query, providerID); err != nil {
		return nil, mapError(err, "list services")
	}

	services := make([]*model.Service, 0, len(rows))
	for _, row := range rows {
		services = append(services, row.toModel())
	}
	return services, nil
}

func (r *ProviderRepository) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var row serviceRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "get service")
	}
	return row.toModel(), nil
}

func (r *ProviderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProviderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE providers SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return mapError(err, "update provider status")
	}
	return expectRows(res, "update provider status")
}

func (r *ProviderRepository) CountByStatus(ctx context.Context) (map[model.ProviderStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM providers GROUP BY status`); err != nil {
		return nil, mapError(err, "count providers")
	}

	counts := make(map[model.ProviderStatus]int, len(rows))
	for _, row := range rows {
		counts[model.ProviderStatus(row.Status)] = row.Count
	}
	return counts, nil
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
)

// bookingRow is a booking joined with its provider, service and pet.
type bookingRow struct {
	ID                 uuid.UUID       `db:"id"`
	CustomerID         uuid.UUID       `db:"customer_id"`
	ProviderID         uuid.UUID       `db:"provider_id"`
	ServiceID          uuid.UUID       `db:"service_id"`
	PetID              uuid.NullUUID   `db:"pet_id"`
	ScheduledAt        time.Time       `db:"scheduled_at"`
	Status             string          `db:"status"`
	PaymentStatus      string          `db:"payment_status"`
	PaymentIntentID    sql.NullString  `db:"payment_intent_id"`
	CheckoutSessionID  sql.NullString  `db:"checkout_session_id"`
	Price              sql.NullFloat64 `db:"price"`
	Currency           string          `db:"currency"`
	Notes              sql.NullString  `db:"notes"`
	CancellationReason sql.NullString  `db:"cancellation_reason"`
	CancelledAt        sql.NullTime    `db:"cancelled_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`

	ProviderOwnerID        uuid.UUID      `db:"provider_owner_id"`
	ProviderName           string         `db:"provider_name"`
	ProviderLogoURL        sql.NullString `db:"provider_logo_url"`
	ServiceName            string         `db:"service_name"`
	ServiceDurationMinutes sql.NullInt32  `db:"service_duration_minutes"`
	PetName                sql.NullString `db:"pet_name"`
	PetSpecies             sql.NullString `db:"pet_species"`
}

func (r bookingRow) toModel() *model.Booking {
	b := &model.Booking{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		ProviderID:         r.ProviderID,
		ServiceID:          r.ServiceID,
		ScheduledAt:        r.ScheduledAt,
		Status:             model.BookingStatus(r.Status),
		PaymentStatus:      model.PaymentStatus(r.PaymentStatus),
		PaymentIntentID:    r.PaymentIntentID.String,
		CheckoutSessionID:  r.CheckoutSessionID.String,
		Price:              r.Price.Float64,
		Currency:           r.Currency,
		Notes:              r.Notes.String,
		CancellationReason: r.CancellationReason.String,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Provider: &model.ProviderSummary{
			ID:           r.ProviderID,
			OwnerID:      r.ProviderOwnerID,
			BusinessName: r.ProviderName,
			LogoURL:      r.ProviderLogoURL.String,
		},
		Service: &model.ServiceSummary{
			ID:              r.ServiceID,
			Name:            r.ServiceName,
			DurationMinutes: int(r.ServiceDurationMinutes.Int32),
		},
	}
	if r.CancelledAt.Valid {
		t := r.CancelledAt.Time
		b.CancelledAt = &t
	}
	if r.PetID.Valid {
		id := r.PetID.UUID
		b.PetID = &id
		b.Pet = &model.PetSummary{
			ID:      id,
			Name:    r.PetName.String,
			Species: r.PetSpecies.String,
		}
	}
	return b
}

const bookingSelect = `
	SELECT b.id, b.customer_id, b.provider_id, b.service_id, b.pet_id, b.scheduled_at,
		b.status, b.payment_status, b.payment_intent_id, b.checkout_session_id, b.price,
		b.currency, b.notes, b.cancellation_reason, b.cancelled_at, b.created_at, b.updated_at,
		p.owner_id AS provider_owner_id, p.business_name AS provider_name,
		p.logo_url AS provider_logo_url, s.name AS service_name,
		s.duration_minutes AS service_duration_minutes, pt.name AS pet_name,
		pt.species AS pet_species
	FROM bookings b
	JOIN providers p ON p.id = b.provider_id
	JOIN services s ON s.id = b.service_id
	LEFT JOIN pets pt ON pt.id = b.pet_id`

type BookingRepository struct {
	BaseRepository
}

func NewBookingRepository(base BaseRepository) *BookingRepository {
	return &BookingRepository{base}
}

func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt

	var petID uuid.NullUUID
	if b.PetID != nil {
		petID = uuid.NullUUID{UUID: *b.PetID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (
			id, customer_id, provider_id, service_id, pet_id, scheduled_at, status,
			payment_status, price, currency, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		b.ID, b.CustomerID, b.ProviderID, b.ServiceID, petID, b.ScheduledAt, b.Status,
		b.PaymentStatus, b.Price, b.Currency, nullString(b.Notes), b.CreatedAt, b.UpdatedAt,
	)
	return mapError(err, "create booking")
}

func (r *BookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, bookingSelect+` WHERE b.id = $1`, id); err != nil {
		return nil, mapError(err, "get booking")
	}
	return row.toModel(), nil
}

func (r *BookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	if filters == nil {
		filters = &model.BookingFilters{}
	}
	page := filters.Pagination.Normalize()

	q := newQuery(bookingSelect + ` WHERE 1=1`)
	if filters.ParticipantID != uuid.Nil {
		q.where("(b.customer_id = ? OR p.owner_id = ?)", filters.ParticipantID, filters.ParticipantID)
	}
	if filters.ProviderID != uuid.Nil {
		q.where("b.provider_id = ?", filters.ProviderID)
	}
	if filters.CustomerID != uuid.Nil {
		q.where("b.customer_id = ?", filters.CustomerID)
	}
	if filters.Status != "" {
		q.where("b.status = ?", filters.Status)
	}
	q.suffix(" ORDER BY b.scheduled_at DESC LIMIT ? OFFSET ?", page.Limit, page.Offset)

	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q.sql()), q.args...); err != nil {
		return nil, mapError(err, "list bookings")
	}

	bookings := make([]*model.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, row.toModel())
	}
	return bookings, nil
}

// Cancel keeps any previously stored reason when reason is nil.
func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID, reason *string) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1,
			cancellation_reason = COALESCE($2, cancellation_reason),
			cancelled_at = $3,
			updated_at = $3
		WHERE id = $4`,
		model.BookingStatusCancelled, nullStringPtr(reason), now, id)
	if err != nil {
		return mapError(err, "cancel booking")
	}
	return expectRows(res, "cancel booking")
}

func (r *BookingRepository) UpdatePayment(ctx context.Context, id uuid.UUID, paymentStatus model.PaymentStatus, status model.BookingStatus, paymentIntentID *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET payment_status = $1,
			status = $2,
			payment_intent_id = COALESCE($3, payment_intent_id),
			updated_at = $4
		WHERE id = $5`,
		paymentStatus, status, nullStringPtr(paymentIntentID), time.Now(), id)
	if err != nil {
		return mapError(err, "update booking payment")
	}
	return expectRows(res, "update booking payment")
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return mapError(err, "update booking status")
	}
	return expectRows(res, "update booking status")
}

func (r *BookingRepository) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET checkout_session_id = $1, updated_at = $2 WHERE id = $3`,
		sessionID, time.Now(), id)
	if err != nil {
		return mapError(err, "set checkout session")
	}
	return expectRows(res, "set checkout session")
}

func (r *BookingRepository) HasCompletedBooking(ctx context.Context, customerID, providerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE customer_id = $1 AND provider_id = $2 AND status = $3
		)`, customerID, providerID, model.BookingStatusCompleted)
	if err != nil {
		return false, mapError(err, "check completed booking")
	}
	return exists, nil
}

func (r *BookingRepository) Stats(ctx context.Context) (*model.BookingStats, error) {
	var rows []struct {
		Status  string          `db:"status"`
		Count   int             `db:"count"`
		Revenue sql.NullFloat64 `db:"revenue"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS count,
			SUM(price) FILTER (WHERE payment_status = 'paid') AS revenue
		FROM bookings
		GROUP BY status`)
	if err != nil {
		return nil, mapError(err, "booking stats")
	}

	stats := &model.BookingStats{ByStatus: make(map[model.BookingStatus]int, len(rows))}
	for _, row := range rows {
		stats.ByStatus[model.BookingStatus(row.Status)] = row.Count
		stats.Revenue += row.Revenue.Float64
	}
	return stats, nil
}

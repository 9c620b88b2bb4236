package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// StatusAfterPayment is the booking status implied by a payment status:
// only a paid booking is confirmed.
func StatusAfterPayment(ps PaymentStatus) BookingStatus {
	if ps == PaymentStatusPaid {
		return BookingStatusConfirmed
	}
	return BookingStatusPending
}

type Booking struct {
	ID                 uuid.UUID     `json:"id"`
	CustomerID         uuid.UUID     `json:"customer_id"`
	ProviderID         uuid.UUID     `json:"provider_id"`
	ServiceID          uuid.UUID     `json:"service_id"`
	PetID              *uuid.UUID    `json:"pet_id,omitempty"`
	ScheduledAt        time.Time     `json:"scheduled_at"`
	Status             BookingStatus `json:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	PaymentIntentID    string        `json:"payment_intent_id"`
	CheckoutSessionID  string        `json:"checkout_session_id"`
	Price              float64       `json:"price"`
	Currency           string        `json:"currency"`
	Notes              string        `json:"notes"`
	CancellationReason string        `json:"cancellation_reason"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	Provider *ProviderSummary `json:"provider,omitempty"`
	Service  *ServiceSummary  `json:"service,omitempty"`
	Pet      *PetSummary      `json:"pet,omitempty"`
}

type ProviderSummary struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	BusinessName string    `json:"business_name"`
	LogoURL      string    `json:"logo_url"`
}

type ServiceSummary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
}

type PetSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Species string    `json:"species"`
}

// IsParticipant reports whether userID is the customer or the provider owner.
func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	if b.CustomerID == userID {
		return true
	}
	return b.Provider != nil && b.Provider.OwnerID == userID
}

type CreateBookingRequest struct {
	ProviderID  uuid.UUID  `json:"provider_id" validate:"required"`
	ServiceID   uuid.UUID  `json:"service_id" validate:"required"`
	PetID       *uuid.UUID `json:"pet_id"`
	ScheduledAt time.Time  `json:"scheduled_at" validate:"required"`
	Notes       string     `json:"notes" validate:"max=1000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UpdatePaymentRequest struct {
	PaymentStatus   PaymentStatus `json:"payment_status" validate:"required,oneof=unpaid paid failed refunded"`
	PaymentIntentID string        `json:"payment_intent_id" validate:"max=255"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=confirmed completed"`
}

type BookingFilters struct {
	ProviderID uuid.UUID
	CustomerID uuid.UUID
	Status     BookingStatus
	// ParticipantID restricts results to bookings the user takes part in.
	// Zero for admins.
	ParticipantID uuid.UUID
	Pagination
}

type BookingStats struct {
	ByStatus map[BookingStatus]int `json:"by_status"`
	Revenue  float64               `json:"revenue"`
}

package model

import "github.com/google/uuid"

type CreateCheckoutRequest struct {
	BookingID  uuid.UUID `json:"booking_id" validate:"required"`
	SuccessURL string    `json:"success_url" validate:"required,url"`
	CancelURL  string    `json:"cancel_url" validate:"required,url"`
}

type CreateIntentRequest struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
}

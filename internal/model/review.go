package model

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID           uuid.UUID `json:"id"`
	ProviderID   uuid.UUID `json:"provider_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type Favorite struct {
	UserID     uuid.UUID        `json:"user_id"`
	ProviderID uuid.UUID        `json:"provider_id"`
	Provider   *ProviderSummary `json:"provider,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

type AddFavoriteRequest struct {
	ProviderID uuid.UUID `json:"provider_id" validate:"required"`
}

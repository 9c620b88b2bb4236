package model

import (
	"time"

	"github.com/google/uuid"
)

type Pet struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	WeightKg  float64    `json:"weight_kg"`
	Notes     string     `json:"notes"`
	PhotoURL  string     `json:"photo_url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CreatePetRequest struct {
	Name      string     `json:"name" validate:"required,max=100"`
	Species   string     `json:"species" validate:"required,oneof=dog cat bird rabbit reptile other"`
	Breed     string     `json:"breed" validate:"max=100"`
	BirthDate *time.Time `json:"birth_date"`
	WeightKg  float64    `json:"weight_kg" validate:"gte=0"`
	Notes     string     `json:"notes" validate:"max=1000"`
	PhotoURL  string     `json:"photo_url" validate:"omitempty,url"`
}

type UpdatePetRequest struct {
	Name      *string    `json:"name" validate:"omitempty,max=100"`
	Species   *string    `json:"species" validate:"omitempty,oneof=dog cat bird rabbit reptile other"`
	Breed     *string    `json:"breed" validate:"omitempty,max=100"`
	BirthDate *time.Time `json:"birth_date"`
	WeightKg  *float64   `json:"weight_kg" validate:"omitempty,gte=0"`
	Notes     *string    `json:"notes" validate:"omitempty,max=1000"`
	PhotoURL  *string    `json:"photo_url" validate:"omitempty,url"`
}

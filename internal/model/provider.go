package model

import (
	"time"

	"github.com/google/uuid"
)

type ProviderCategory string

const (
	CategoryGrooming   ProviderCategory = "grooming"
	CategoryTraining   ProviderCategory = "training"
	CategoryVeterinary ProviderCategory = "veterinary"
	CategoryAds        ProviderCategory = "ads"
)

func (c ProviderCategory) Valid() bool {
	switch c {
	case CategoryGrooming, CategoryTraining, CategoryVeterinary, CategoryAds:
		return true
	}
	return false
}

// OffersTimedServices reports whether the category sells per-session
// services with a duration. Ads providers only publish flat-rate listings.
func (c ProviderCategory) OffersTimedServices() bool {
	switch c {
	case CategoryGrooming, CategoryTraining, CategoryVeterinary:
		return true
	}
	return false
}

type ProviderStatus string

const (
	ProviderStatusPending   ProviderStatus = "pending"
	ProviderStatusApproved  ProviderStatus = "approved"
	ProviderStatusRejected  ProviderStatus = "rejected"
	ProviderStatusSuspended ProviderStatus = "suspended"
)

func (s ProviderStatus) Valid() bool {
	switch s {
	case ProviderStatusPending, ProviderStatusApproved, ProviderStatusRejected, ProviderStatusSuspended:
		return true
	}
	return false
}

type LocationMode string

const (
	LocationSingle   LocationMode = "single"
	LocationMultiple LocationMode = "multiple"
)

type Address struct {
	Label      string   `json:"label,omitempty"`
	Street     string   `json:"street" validate:"required"`
	City       string   `json:"city" validate:"required"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postal_code" validate:"required"`
	Country    string   `json:"country" validate:"required"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// DayHours is one weekday's availability. Start and End are "HH:MM".
type DayHours struct {
	Day     string `json:"day"`
	Enabled bool   `json:"enabled"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

type Provider struct {
	ID           uuid.UUID        `json:"id"`
	OwnerID      uuid.UUID        `json:"owner_id"`
	Category     ProviderCategory `json:"category"`
	Status       ProviderStatus   `json:"status"`
	BusinessName string           `json:"business_name"`
	Description  string           `json:"description"`
	ContactEmail string           `json:"contact_email"`
	ContactPhone string           `json:"contact_phone"`
	Address      string           `json:"address"`
	LocationMode LocationMode     `json:"location_mode"`
	Addresses    []Address        `json:"addresses"`
	LogoURL      string           `json:"logo_url"`
	CoverURL     string           `json:"cover_url"`
	Photos       []string         `json:"photos"`
	BasePrice    float64          `json:"base_price"`
	HourlyRate   float64          `json:"hourly_rate"`
	Currency     string           `json:"currency"`
	Availability []DayHours       `json:"availability"`
	Rating       float64          `json:"rating"`
	ReviewCount  int              `json:"review_count"`

	TermsAcceptedAt   time.Time `json:"terms_accepted_at"`
	PrivacyAcceptedAt time.Time `json:"privacy_accepted_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProviderDetail is a provider with its catalogue, as served publicly.
type ProviderDetail struct {
	*Provider
	Services []*Service `json:"services"`
	Reviews  []*Review  `json:"reviews"`
}

type ProviderFilters struct {
	Category ProviderCategory
	City     string
	Status   ProviderStatus
	Pagination
}

type UpdateProviderStatusRequest struct {
	Status ProviderStatus `json:"status" validate:"required,oneof=pending approved rejected suspended"`
}

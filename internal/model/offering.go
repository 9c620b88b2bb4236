package model

import (
	"time"

	"github.com/google/uuid"
)

type ServiceKind string

const (
	// ServiceKindListing is a flat-rate offering from the service summary.
	ServiceKindListing ServiceKind = "listing"
	// ServiceKindSession is a timed offering with a duration and gallery.
	ServiceKindSession ServiceKind = "session"
)

type Service struct {
	ID              uuid.UUID   `json:"id"`
	ProviderID      uuid.UUID   `json:"provider_id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Kind            ServiceKind `json:"kind"`
	Price           float64     `json:"price"`
	DurationMinutes int         `json:"duration_minutes"`
	Gallery         []string    `json:"gallery"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

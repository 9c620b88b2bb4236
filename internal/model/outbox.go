package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

const (
	EventBookingCreated        = "booking.created"
	EventBookingCancelled      = "booking.cancelled"
	EventBookingStatusChanged  = "booking.status_changed"
	EventBookingPaymentUpdated = "booking.payment_updated"
	EventProviderOnboarded     = "provider.onboarded"
	EventMessageSent           = "message.sent"
)

type OutboxEvent struct {
	ID           uuid.UUID       `json:"id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       OutboxStatus    `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID            uuid.UUID        `json:"id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	ProviderID    uuid.UUID        `json:"provider_id"`
	LastMessageAt *time.Time       `json:"last_message_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Provider      *ProviderSummary `json:"provider,omitempty"`
}

// IsParticipant reports whether userID is the customer or the provider owner.
func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	if c.CustomerID == userID {
		return true
	}
	return c.Provider != nil && c.Provider.OwnerID == userID
}

// Counterpart returns the participant who is not userID.
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.CustomerID == userID && c.Provider != nil {
		return c.Provider.OwnerID
	}
	return c.CustomerID
}

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

type StartConversationRequest struct {
	ProviderID uuid.UUID `json:"provider_id" validate:"required"`
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

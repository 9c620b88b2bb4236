package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Message is the envelope the outbox worker publishes.
type Message struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ConversationChannel is the channel new chat messages are fanned out on.
func ConversationChannel(conversationID string) string {
	return "conversation:" + conversationID
}

// EventsChannel carries domain events relayed from the outbox.
const EventsChannel = "petify:events"

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	"github.com/petify/petify-api/internal/service/notification"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/messaging"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Service struct {
	repo      repository.ConversationRepository
	providers repository.ProviderRepository
	notifSvc  notification.Service
	broker    messaging.Broker
	log       *logger.Logger
}

// NewService wires chat. broker may be nil, which disables streaming.
func NewService(
	repo repository.ConversationRepository,
	providers repository.ProviderRepository,
	notifSvc notification.Service,
	broker messaging.Broker,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		notifSvc:  notifSvc,
		broker:    broker,
		log:       log,
	}
}

// Start returns the caller's conversation with a provider, creating it on first contact.
func (s *Service) Start(ctx context.Context, caller model.Caller, providerID uuid.UUID) (*model.Conversation, error) {
	provider, err := s.providers.Get(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("provider", err)
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	if provider.OwnerID == caller.UserID {
		return nil, apperrors.NewBadRequest("you cannot message your own business", nil)
	}

	conv, err := s.repo.GetOrCreate(ctx, caller.UserID, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) List(ctx context.Context, caller model.Caller) ([]*model.Conversation, error) {
	convs, err := s.repo.ListForUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

func (s *Service) Messages(ctx context.Context, caller model.Caller, conversationID uuid.UUID, before *time.Time, limit int) ([]*model.Message, error) {
	if _, err := s.conversation(ctx, caller, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	msgs, err := s.repo.ListMessages(ctx, conversationID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// Send stores a message and fans it out to live subscribers.
func (s *Service) Send(ctx context.Context, caller model.Caller, conversationID uuid.UUID, body string) (*model.Message, error) {
	conv, err := s.conversation(ctx, caller, conversationID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewBadRequest("message body is required", nil)
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       caller.UserID,
		Body:           body,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, messaging.ConversationChannel(conversationID.String()), msg); err != nil {
			s.log.Error(err, "Failed to publish chat message", "conversation_id", conversationID.String())
		}
	}

	err = s.notifSvc.Send(ctx, &model.Notification{
		UserID: conv.Counterpart(caller.UserID),
		Type:   model.NotificationNewMessage,
		Title:  "New message",
		Body:   preview(body),
		Data:   model.JSONMap{"conversation_id": conversationID.String()},
	})
	if err != nil {
		s.log.Error(err, "Failed to send message notification", "conversation_id", conversationID.String())
	}
	return msg, nil
}

// Stream delivers messages posted to the conversation until ctx ends.
func (s *Service) Stream(ctx context.Context, caller model.Caller, conversationID uuid.UUID) (<-chan *model.Message, error) {
	if s.broker == nil {
		return nil, apperrors.NewUnavailable("live chat is not available")
	}
	if _, err := s.conversation(ctx, caller, conversationID); err != nil {
		return nil, err
	}

	raw, err := s.broker.Subscribe(ctx, messaging.ConversationChannel(conversationID.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to conversation: %w", err)
	}

	out := make(chan *model.Message)
	go func() {
		defer close(out)
		for data := range raw {
			var msg model.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				s.log.Warn("Dropping malformed chat message", "conversation_id", conversationID.String())
				continue
			}
			select {
			case out <- &msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Service) conversation(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Conversation, error) {
	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("conversation", err)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if !conv.IsParticipant(caller.UserID) {
		return nil, apperrors.NewForbidden("you are not part of this conversation")
	}
	return conv, nil
}

func preview(body string) string {
	const max = 120
	r := []rune(body)
	if len(r) <= max {
		return body
	}
	return string(r[:max]) + "..."
}

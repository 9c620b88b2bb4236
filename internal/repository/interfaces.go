package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)

// All repository interfaces in one file
type (
	ProfileRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Profile, error)
		GetRole(ctx context.Context, id uuid.UUID) (model.Role, error)
		List(ctx context.Context, filters *model.ProfileFilters) ([]*model.Profile, error)
		UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
		Count(ctx context.Context) (int, error)
	}

	ProviderRepository interface {
		// CreateWithServices writes a provider and its catalogue in one transaction.
		CreateWithServices(ctx context.Context, provider *model.Provider, services []*model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Provider, error)
		List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error)
		ListServices(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error)
		GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProviderStatus) error
		CountByStatus(ctx context.Context) (map[model.ProviderStatus]int, error)
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error)
		Cancel(ctx context.Context, id uuid.UUID, reason *string) error
		UpdatePayment(ctx context.Context, id uuid.UUID, paymentStatus model.PaymentStatus, status model.BookingStatus, paymentIntentID *string) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error
		SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
		HasCompletedBooking(ctx context.Context, customerID, providerID uuid.UUID) (bool, error)
		Stats(ctx context.Context) (*model.BookingStats, error)
	}

	PetRepository interface {
		Create(ctx context.Context, pet *model.Pet) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
		ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error)
		Update(ctx context.Context, pet *model.Pet) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	ReviewRepository interface {
		// Create inserts the review and refreshes the provider's rating aggregate.
		Create(ctx context.Context, review *model.Review) error
		ListByProvider(ctx context.Context, providerID uuid.UUID, limit int) ([]*model.Review, error)
	}

	FavoriteRepository interface {
		List(ctx context.Context, userID uuid.UUID) ([]*model.Favorite, error)
		Add(ctx context.Context, userID, providerID uuid.UUID) error
		Remove(ctx context.Context, userID, providerID uuid.UUID) error
	}

	ConversationRepository interface {
		GetOrCreate(ctx context.Context, customerID, providerID uuid.UUID) (*model.Conversation, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error)
		ListMessages(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]*model.Message, error)
		// CreateMessage inserts the message and bumps the conversation's last_message_at.
		CreateMessage(ctx context.Context, msg *model.Message) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending moves up to limit pending events to processing and returns them.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retry bool) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	"github.com/petify/petify-api/internal/service/event"
	"github.com/petify/petify-api/internal/service/notification"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/payment"
)

// PaymentLookup reads an intent back from the payment processor.
type PaymentLookup interface {
	GetPaymentIntent(ctx context.Context, id string) (*payment.IntentStatus, error)
}

type Service struct {
	repo      repository.BookingRepository
	providers repository.ProviderRepository
	pets      repository.PetRepository
	notifSvc  notification.Service
	events    event.Emitter
	payments  PaymentLookup
	log       *logger.Logger
}

func NewService(
	repo repository.BookingRepository,
	providers repository.ProviderRepository,
	pets repository.PetRepository,
	notifSvc notification.Service,
	events event.Emitter,
	payments PaymentLookup,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		pets:      pets,
		notifSvc:  notifSvc,
		events:    events,
		payments:  payments,
		log:       log,
	}
}

// List returns the bookings visible to caller. Non-admins only see
// bookings they are a customer or provider on.
func (s *Service) List(ctx context.Context, caller model.Caller, filters *model.BookingFilters) ([]*model.Booking, error) {
	if filters == nil {
		filters = &model.BookingFilters{}
	}
	if !caller.IsAdmin() {
		filters.ParticipantID = caller.UserID
	}
	filters.Pagination = filters.Pagination.Normalize()

	bookings, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *Service) Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !b.IsParticipant(caller.UserID) {
		return nil, apperrors.NewForbidden("you do not have access to this booking")
	}
	return b, nil
}

func (s *Service) Create(ctx context.Context, caller model.Caller, req *model.CreateBookingRequest) (*model.Booking, error) {
	provider, err := s.providers.Get(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("provider", err)
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	if provider.Status != model.ProviderStatusApproved {
		return nil, apperrors.NewBadRequest("provider is not accepting bookings", nil)
	}
	if provider.OwnerID == caller.UserID {
		return nil, apperrors.NewBadRequest("you cannot book your own business", nil)
	}

	svc, err := s.providers.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("service", err)
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if svc.ProviderID != provider.ID {
		return nil, apperrors.NewBadRequest("service does not belong to this provider", nil)
	}

	if req.PetID != nil {
		pet, err := s.pets.Get(ctx, *req.PetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("pet", err)
			}
			return nil, fmt.Errorf("failed to get pet: %w", err)
		}
		if pet.OwnerID != caller.UserID {
			return nil, apperrors.NewForbidden("pet belongs to another user")
		}
	}

	b := &model.Booking{
		CustomerID:    caller.UserID,
		ProviderID:    provider.ID,
		ServiceID:     svc.ID,
		PetID:         req.PetID,
		ScheduledAt:   req.ScheduledAt.UTC(),
		Status:        model.BookingStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		Price:         svc.Price,
		Currency:      provider.Currency,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	created, err := s.load(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, provider.OwnerID, created, model.NotificationBookingCreated,
		"New booking request", fmt.Sprintf("A customer booked %s.", serviceName(created)))
	s.emit(ctx, model.EventBookingCreated, created)
	return created, nil
}

// Cancel marks a booking cancelled, keeping the reason when one is given.
func (s *Service) Cancel(ctx context.Context, caller model.Caller, id uuid.UUID, reason string) (*model.Booking, error) {
	b, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case model.BookingStatusCompleted:
		return nil, apperrors.NewConflict("a completed booking cannot be cancelled", nil)
	case model.BookingStatusCancelled:
		return nil, apperrors.NewConflict("booking is already cancelled", nil)
	}

	var reasonArg *string
	if r := strings.TrimSpace(reason); r != "" {
		reasonArg = &r
	}
	if err := s.repo.Cancel(ctx, id, reasonArg); err != nil {
		return nil, s.writeError(err, "cancel booking")
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	recipient := updated.CustomerID
	if caller.UserID == updated.CustomerID && updated.Provider != nil {
		recipient = updated.Provider.OwnerID
	}
	s.notify(ctx, recipient, updated, model.NotificationBookingCancelled,
		"Booking cancelled", cancelBody(updated))
	s.emit(ctx, model.EventBookingCancelled, updated)
	return updated, nil
}

// UpdatePayment records a payment outcome reported by the customer's client.
// A customer can only report paid for an intent the processor confirms.
func (s *Service) UpdatePayment(ctx context.Context, caller model.Caller, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Booking, error) {
	b, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && b.CustomerID != caller.UserID {
		return nil, apperrors.NewForbidden("only the customer can update payment")
	}
	if req.PaymentStatus == model.PaymentStatusPaid && !caller.IsAdmin() {
		if err := s.verifyPaid(ctx, b.ID, req.PaymentIntentID); err != nil {
			return nil, err
		}
	}
	return s.applyPayment(ctx, b, req.PaymentStatus, req.PaymentIntentID)
}

func (s *Service) verifyPaid(ctx context.Context, bookingID uuid.UUID, intentID string) error {
	if s.payments == nil {
		return apperrors.NewUnavailable("payments are not configured")
	}
	if intentID == "" {
		return apperrors.NewBadRequest("payment_intent_id is required to mark a booking paid", nil)
	}
	intent, err := s.payments.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return apperrors.NewBadGateway("failed to verify payment", err)
	}
	if !intent.Succeeded || intent.BookingID != bookingID.String() {
		return apperrors.NewConflict("payment has not succeeded for this booking", nil)
	}
	return nil
}

// RecordPayment applies a payment outcome from the payment processor.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paymentIntentID string) (*model.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyPayment(ctx, b, status, paymentIntentID)
}

func (s *Service) applyPayment(ctx context.Context, b *model.Booking, status model.PaymentStatus, paymentIntentID string) (*model.Booking, error) {
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("invalid payment status", nil)
	}
	if b.Status == model.BookingStatusCancelled || b.Status == model.BookingStatusCompleted {
		return nil, apperrors.NewConflict(fmt.Sprintf("booking is %s", b.Status), nil)
	}

	var intentArg *string
	if paymentIntentID != "" {
		intentArg = &paymentIntentID
	}
	if err := s.repo.UpdatePayment(ctx, b.ID, status, model.StatusAfterPayment(status), intentArg); err != nil {
		return nil, s.writeError(err, "update payment")
	}

	updated, err := s.load(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	switch status {
	case model.PaymentStatusPaid:
		s.notify(ctx, updated.CustomerID, updated, model.NotificationPaymentReceived,
			"Payment received", "Your booking is confirmed.")
		if updated.Provider != nil {
			s.notify(ctx, updated.Provider.OwnerID, updated, model.NotificationBookingConfirmed,
				"Booking confirmed", fmt.Sprintf("Payment received for %s.", serviceName(updated)))
		}
	case model.PaymentStatusFailed:
		s.notify(ctx, updated.CustomerID, updated, model.NotificationPaymentFailed,
			"Payment failed", "We could not process your payment. Please try again.")
	}
	s.emit(ctx, model.EventBookingPaymentUpdated, updated)
	return updated, nil
}

// UpdateStatus lets the provider confirm or complete a booking.
func (s *Service) UpdateStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status model.BookingStatus) (*model.Booking, error) {
	b, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	isOwner := b.Provider != nil && b.Provider.OwnerID == caller.UserID
	if !caller.IsAdmin() && !isOwner {
		return nil, apperrors.NewForbidden("only the provider can change booking status")
	}
	if status != model.BookingStatusConfirmed && status != model.BookingStatusCompleted {
		return nil, apperrors.NewBadRequest("status must be confirmed or completed", nil)
	}
	if b.Status == model.BookingStatusCancelled {
		return nil, apperrors.NewConflict("booking is cancelled", nil)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, s.writeError(err, "update booking status")
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	notifType, title := model.NotificationBookingConfirmed, "Booking confirmed"
	if status == model.BookingStatusCompleted {
		notifType, title = model.NotificationBookingCompleted, "Booking completed"
	}
	s.notify(ctx, updated.CustomerID, updated, notifType, title,
		fmt.Sprintf("Your booking for %s is %s.", serviceName(updated), status))
	s.emit(ctx, model.EventBookingStatusChanged, updated)
	return updated, nil
}

// AttachCheckoutSession remembers the processor session created for a booking.
func (s *Service) AttachCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	if err := s.repo.SetCheckoutSession(ctx, id, sessionID); err != nil {
		return s.writeError(err, "attach checkout session")
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("booking", err)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (s *Service) writeError(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("booking", err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// notify and emit are follow-ups: the booking write has already happened,
// so failures are logged and never returned.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, b *model.Booking, typ model.NotificationType, title, body string) {
	err := s.notifSvc.Send(ctx, &model.Notification{
		UserID: userID,
		Type:   typ,
		Title:  title,
		Body:   body,
		Data:   model.JSONMap{"booking_id": b.ID.String()},
	})
	if err != nil {
		s.log.Error(err, "Failed to send booking notification",
			"booking_id", b.ID.String(), "type", string(typ))
	}
}

func (s *Service) emit(ctx context.Context, eventType string, b *model.Booking) {
	payload := map[string]interface{}{
		"booking_id":     b.ID,
		"customer_id":    b.CustomerID,
		"provider_id":    b.ProviderID,
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.log.Error(err, "Failed to record booking event",
			"booking_id", b.ID.String(), "event_type", eventType)
	}
}

func serviceName(b *model.Booking) string {
	if b.Service != nil && b.Service.Name != "" {
		return b.Service.Name
	}
	return "a service"
}

func cancelBody(b *model.Booking) string {
	if b.CancellationReason != "" {
		return fmt.Sprintf("Booking for %s was cancelled: %s", serviceName(b), b.CancellationReason)
	}
	return fmt.Sprintf("Booking for %s was cancelled.", serviceName(b))
}

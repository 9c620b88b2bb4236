package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/payment"
)

// Bookings is the slice of the booking service payments need.
type Bookings interface {
	Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Booking, error)
	RecordPayment(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paymentIntentID string) (*model.Booking, error)
	AttachCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
}

type Service struct {
	processor payment.Processor
	bookings  Bookings
	log       *logger.Logger
}

// NewService wires payments. A nil processor disables them.
func NewService(processor payment.Processor, bookings Bookings, log *logger.Logger) *Service {
	return &Service{
		processor: processor,
		bookings:  bookings,
		log:       log,
	}
}

func (s *Service) Enabled() bool {
	return s.processor != nil
}

func (s *Service) CreateCheckoutSession(ctx context.Context, caller model.Caller, req *model.CreateCheckoutRequest) (*payment.CheckoutSession, error) {
	if !s.Enabled() {
		return nil, apperrors.NewUnavailable("payments are not configured")
	}
	b, err := s.payable(ctx, caller, req.BookingID)
	if err != nil {
		return nil, err
	}

	session, err := s.processor.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		BookingID:     b.ID.String(),
		Description:   describe(b),
		Amount:        b.Price,
		Currency:      b.Currency,
		CustomerEmail: caller.Email,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	})
	if err != nil {
		return nil, apperrors.NewBadGateway("payment processor rejected the request", err)
	}

	if err := s.bookings.AttachCheckoutSession(ctx, b.ID, session.ID); err != nil {
		s.log.Error(err, "Failed to store checkout session", "booking_id", b.ID.String(), "session_id", session.ID)
	}
	return session, nil
}

func (s *Service) CreatePaymentIntent(ctx context.Context, caller model.Caller, req *model.CreateIntentRequest) (*payment.Intent, error) {
	if !s.Enabled() {
		return nil, apperrors.NewUnavailable("payments are not configured")
	}
	b, err := s.payable(ctx, caller, req.BookingID)
	if err != nil {
		return nil, err
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, payment.IntentRequest{
		BookingID:   b.ID.String(),
		Description: describe(b),
		Amount:      b.Price,
		Currency:    b.Currency,
	})
	if err != nil {
		return nil, apperrors.NewBadGateway("payment processor rejected the request", err)
	}
	return intent, nil
}

// HandleWebhook authenticates and applies a processor event. Only a bad
// signature is reported; once the event is authentic, processing problems
// are logged so the processor does not redeliver forever.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.Enabled() {
		return apperrors.NewUnavailable("payments are not configured")
	}

	ev, err := s.processor.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return apperrors.NewBadRequest("invalid webhook signature", err)
		}
		return apperrors.NewBadRequest("invalid webhook payload", err)
	}

	var status model.PaymentStatus
	switch ev.Type {
	case payment.EventCheckoutCompleted, payment.EventPaymentSucceeded:
		status = model.PaymentStatusPaid
	case payment.EventPaymentFailed:
		status = model.PaymentStatusFailed
	default:
		s.log.Debug("Ignoring webhook event", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	bookingID, err := uuid.Parse(ev.BookingID)
	if err != nil {
		s.log.Warn("Webhook event without a usable booking reference",
			"event_id", ev.ID, "type", ev.Type, "booking_id", ev.BookingID)
		return nil
	}

	if _, err := s.bookings.RecordPayment(ctx, bookingID, status, ev.PaymentIntentID); err != nil {
		s.log.Error(err, "Failed to apply webhook event",
			"event_id", ev.ID, "type", ev.Type, "booking_id", bookingID.String())
		return nil
	}

	s.log.Info("Applied webhook event", "event_id", ev.ID, "type", ev.Type, "booking_id", bookingID.String())
	return nil
}

func (s *Service) payable(ctx context.Context, caller model.Caller, bookingID uuid.UUID) (*model.Booking, error) {
	b, err := s.bookings.Get(ctx, caller, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != caller.UserID {
		return nil, apperrors.NewForbidden("only the customer can pay for a booking")
	}
	switch {
	case b.PaymentStatus == model.PaymentStatusPaid:
		return nil, apperrors.NewConflict("booking is already paid", nil)
	case b.Status == model.BookingStatusCancelled, b.Status == model.BookingStatusCompleted:
		return nil, apperrors.NewConflict(fmt.Sprintf("booking is %s", b.Status), nil)
	case b.Price <= 0:
		return nil, apperrors.NewBadRequest("booking has nothing to pay", nil)
	}
	return b, nil
}

func describe(b *model.Booking) string {
	name := "Pet service booking"
	if b.Service != nil && b.Service.Name != "" {
		name = b.Service.Name
	}
	if b.Provider != nil && b.Provider.BusinessName != "" {
		name = fmt.Sprintf("%s - %s", name, b.Provider.BusinessName)
	}
	return name
}

package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/email"
	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
)

const maxListLimit = 100

type Service interface {
	// Send stores an in-app notification and mails a copy to the user.
	// Only the insert can fail; delivery problems are logged.
	Send(ctx context.Context, notification *model.Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type service struct {
	repo     repository.NotificationRepository
	profiles repository.ProfileRepository
	emailSvc email.Service
	log      *logger.Logger
}

func NewService(repo repository.NotificationRepository, profiles repository.ProfileRepository, emailSvc email.Service, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		profiles: profiles,
		emailSvc: emailSvc,
		log:      log,
	}
}

func (s *service) Send(ctx context.Context, notification *model.Notification) error {
	if err := validateNotification(notification); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}
	if notification.Data == nil {
		notification.Data = model.JSONMap{}
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.sendEmail(ctx, notification)
	return nil
}

func (s *service) sendEmail(ctx context.Context, notification *model.Notification) {
	profile, err := s.profiles.Get(ctx, notification.UserID)
	if err != nil {
		s.log.Warn("Skipping notification email, profile lookup failed",
			"user_id", notification.UserID.String(), "error", err.Error())
		return
	}
	if profile.Email == "" {
		return
	}

	if err := s.emailSvc.SendCustom(ctx, profile.Email, notification.Title, notification.Body); err != nil {
		s.log.Error(err, "Failed to send notification email",
			"notification_id", notification.ID.String(), "type", string(notification.Type))
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	items, err := s.repo.ListForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("notification", err)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func validateNotification(notification *model.Notification) error {
	if notification == nil {
		return errors.New("notification is nil")
	}
	if notification.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}
	if notification.Type == "" {
		return errors.New("type is required")
	}
	if notification.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

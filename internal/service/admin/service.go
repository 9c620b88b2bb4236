package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
)

// ProviderModerator is the provider service's admin surface.
type ProviderModerator interface {
	AdminList(ctx context.Context, filters model.ProviderFilters) ([]*model.Provider, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProviderStatus) (*model.Provider, error)
}

type Service struct {
	profiles  repository.ProfileRepository
	providers repository.ProviderRepository
	bookings  repository.BookingRepository
	moderator ProviderModerator
	log       *logger.Logger
}

func NewService(
	profiles repository.ProfileRepository,
	providers repository.ProviderRepository,
	bookings repository.BookingRepository,
	moderator ProviderModerator,
	log *logger.Logger,
) *Service {
	return &Service{
		profiles:  profiles,
		providers: providers,
		bookings:  bookings,
		moderator: moderator,
		log:       log,
	}
}

func (s *Service) Stats(ctx context.Context) (*model.AdminStats, error) {
	users, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	providers, err := s.providers.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count providers: %w", err)
	}
	bookings, err := s.bookings.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return &model.AdminStats{Users: users, Providers: providers, Bookings: bookings}, nil
}

func (s *Service) ListUsers(ctx context.Context, filters model.ProfileFilters) ([]*model.Profile, error) {
	if filters.Role != "" && !filters.Role.Valid() {
		return nil, apperrors.NewBadRequest("invalid role filter", nil)
	}
	filters.Pagination = filters.Pagination.Normalize()
	users, err := s.profiles.List(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateRole changes a user's role. Admins cannot change their own role,
// so the last admin cannot lock everyone out.
func (s *Service) UpdateRole(ctx context.Context, caller model.Caller, userID uuid.UUID, role model.Role) (*model.Profile, error) {
	if !role.Valid() {
		return nil, apperrors.NewBadRequest("invalid role", nil)
	}
	if caller.UserID == userID {
		return nil, apperrors.NewForbidden("you cannot change your own role")
	}

	if err := s.profiles.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.log.Info("User role updated", "user_id", userID.String(), "role", string(role), "by", caller.UserID.String())

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return p, nil
}

func (s *Service) ListProviders(ctx context.Context, filters model.ProviderFilters) ([]*model.Provider, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperrors.NewBadRequest("invalid status filter", nil)
	}
	return s.moderator.AdminList(ctx, filters)
}

func (s *Service) UpdateProviderStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status model.ProviderStatus) (*model.Provider, error) {
	p, err := s.moderator.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("Provider status updated", "provider_id", id.String(), "status", string(status), "by", caller.UserID.String())
	return p, nil
}

func (s *Service) ListBookings(ctx context.Context, filters model.BookingFilters) ([]*model.Booking, error) {
	filters.ParticipantID = uuid.Nil
	filters.Pagination = filters.Pagination.Normalize()
	bookings, err := s.bookings.List(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

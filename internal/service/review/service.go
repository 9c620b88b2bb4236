package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
)

const defaultListLimit = 50

// cacheInvalidator drops cached provider data once a rating changes.
type cacheInvalidator interface {
	InvalidateRatings()
}

type Service struct {
	repo      repository.ReviewRepository
	providers repository.ProviderRepository
	bookings  repository.BookingRepository
	cache     cacheInvalidator
	log       *logger.Logger
}

func NewService(
	repo repository.ReviewRepository,
	providers repository.ProviderRepository,
	bookings repository.BookingRepository,
	cache cacheInvalidator,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		bookings:  bookings,
		cache:     cache,
		log:       log,
	}
}

func (s *Service) List(ctx context.Context, providerID uuid.UUID, limit int) ([]*model.Review, error) {
	if limit <= 0 || limit > model.MaxPageSize {
		limit = defaultListLimit
	}
	reviews, err := s.repo.ListByProvider(ctx, providerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Create records a review. Only customers with a completed booking at the
// provider may review it, once.
func (s *Service) Create(ctx context.Context, caller model.Caller, providerID uuid.UUID, req *model.CreateReviewRequest) (*model.Review, error) {
	if _, err := s.providers.Get(ctx, providerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("provider", err)
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	ok, err := s.bookings.HasCompletedBooking(ctx, caller.UserID, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookings: %w", err)
	}
	if !ok {
		return nil, apperrors.NewForbidden("only customers with a completed booking can leave a review")
	}

	r := &model.Review{
		ProviderID: providerID,
		CustomerID: caller.UserID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("you have already reviewed this provider", err)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateRatings()
	}
	s.log.Info("Review created", "review_id", r.ID.String(), "provider_id", providerID.String(), "rating", r.Rating)
	return r, nil
}

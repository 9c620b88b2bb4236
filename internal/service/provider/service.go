package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	"github.com/petify/petify-api/internal/service/event"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/querycache"
)

// Cache resources. Writes invalidate them by name.
const (
	ResourceProviders = "providers"
	ResourceProvider  = "provider"
	ResourceServices  = "services"
)

const reviewsPerProvider = 20

type Service struct {
	repo     repository.ProviderRepository
	reviews  repository.ReviewRepository
	profiles repository.ProfileRepository
	cache    *querycache.Cache
	events   event.Emitter
	log      *logger.Logger
}

func NewService(
	repo repository.ProviderRepository,
	reviews repository.ReviewRepository,
	profiles repository.ProfileRepository,
	cache *querycache.Cache,
	events event.Emitter,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		reviews:  reviews,
		profiles: profiles,
		cache:    cache,
		events:   events,
		log:      log,
	}
}

// List returns approved providers for the public catalogue.
func (s *Service) List(ctx context.Context, filters model.ProviderFilters) ([]*model.Provider, error) {
	filters.Status = model.ProviderStatusApproved
	filters.Pagination = filters.Pagination.Normalize()

	params := map[string]string{
		"category": string(filters.Category),
		"city":     filters.City,
		"limit":    strconv.Itoa(filters.Limit),
		"offset":   strconv.Itoa(filters.Offset),
	}
	providers, err := querycache.Fetch(ctx, s.cache, ResourceProviders, params, func(ctx context.Context) ([]*model.Provider, error) {
		return s.repo.List(ctx, &filters)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

// Get returns an approved provider with its services and latest reviews.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ProviderDetail, error) {
	params := map[string]string{"id": id.String()}
	detail, err := querycache.Fetch(ctx, s.cache, ResourceProvider, params, func(ctx context.Context) (*model.ProviderDetail, error) {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, querycache.Permanent(err)
			}
			return nil, err
		}
		if p.Status != model.ProviderStatusApproved {
			return nil, querycache.Permanent(repository.ErrNotFound)
		}
		services, err := s.repo.ListServices(ctx, id)
		if err != nil {
			return nil, err
		}
		reviews, err := s.reviews.ListByProvider(ctx, id, reviewsPerProvider)
		if err != nil {
			return nil, err
		}
		return &model.ProviderDetail{Provider: p, Services: services, Reviews: reviews}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("provider", err)
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return detail, nil
}

func (s *Service) ListServices(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error) {
	params := map[string]string{"provider_id": providerID.String()}
	services, err := querycache.Fetch(ctx, s.cache, ResourceServices, params, func(ctx context.Context) ([]*model.Service, error) {
		return s.repo.ListServices(ctx, providerID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// SubmitProvider persists a finished onboarding application.
func (s *Service) SubmitProvider(ctx context.Context, p *model.Provider, services []*model.Service) error {
	if err := s.repo.CreateWithServices(ctx, p, services); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apperrors.NewConflict("a provider with these details already exists", err)
		}
		return fmt.Errorf("failed to create provider: %w", err)
	}
	s.invalidate()

	s.promoteOwner(ctx, p.OwnerID)

	err := s.events.Emit(ctx, model.EventProviderOnboarded, map[string]interface{}{
		"provider_id": p.ID,
		"owner_id":    p.OwnerID,
		"category":    p.Category,
		"services":    len(services),
	})
	if err != nil {
		s.log.Error(err, "Failed to record onboarding event", "provider_id", p.ID.String())
	}

	s.log.Info("Provider application submitted",
		"provider_id", p.ID.String(), "category", string(p.Category), "services", len(services))
	return nil
}

// promoteOwner gives a customer the provider role after their first application.
func (s *Service) promoteOwner(ctx context.Context, ownerID uuid.UUID) {
	role, err := s.profiles.GetRole(ctx, ownerID)
	if err != nil {
		s.log.Warn("Could not read owner role", "owner_id", ownerID.String(), "error", err.Error())
		return
	}
	if role != model.RoleCustomer {
		return
	}
	if err := s.profiles.UpdateRole(ctx, ownerID, model.RoleProvider); err != nil {
		s.log.Error(err, "Failed to promote owner to provider", "owner_id", ownerID.String())
	}
}

// AdminList lists providers in any status, bypassing the cache.
func (s *Service) AdminList(ctx context.Context, filters model.ProviderFilters) ([]*model.Provider, error) {
	filters.Pagination = filters.Pagination.Normalize()
	providers, err := s.repo.List(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProviderStatus) (*model.Provider, error) {
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("invalid provider status", nil)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("provider", err)
		}
		return nil, fmt.Errorf("failed to update provider status: %w", err)
	}
	s.invalidate()

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return p, nil
}

// InvalidateRatings drops cached provider data after a review changes the aggregate.
func (s *Service) InvalidateRatings() {
	s.invalidate()
}

func (s *Service) invalidate() {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ResourceProviders)
	s.cache.Invalidate(ResourceProvider)
	s.cache.Invalidate(ResourceServices)
}

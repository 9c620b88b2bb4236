package favorite

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	apperrors "github.com/petify/petify-api/pkg/errors"
)

type Service struct {
	repo      repository.FavoriteRepository
	providers repository.ProviderRepository
}

func NewService(repo repository.FavoriteRepository, providers repository.ProviderRepository) *Service {
	return &Service{repo: repo, providers: providers}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*model.Favorite, error) {
	favorites, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

// Add saves an approved provider. Saving the same provider twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, providerID uuid.UUID) error {
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("provider", err)
		}
		return fmt.Errorf("failed to get provider: %w", err)
	}
	if p.Status != model.ProviderStatusApproved {
		return apperrors.NewNotFound("provider", nil)
	}

	if err := s.repo.Add(ctx, userID, providerID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, userID, providerID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, providerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("favorite", err)
		}
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

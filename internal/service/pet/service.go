package pet

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

// Service manages a customer's pets. Pets are visible to their owner only.
type Service struct {
	repo repository.PetRepository
	log  *logger.Logger
}

func NewService(repo repository.PetRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	pets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *model.CreatePetRequest) (*model.Pet, error) {
	p := &model.Pet{
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(req.Name),
		Species:   req.Species,
		Breed:     strings.TrimSpace(req.Breed),
		BirthDate: req.BirthDate,
		WeightKg:  req.WeightKg,
		Notes:     req.Notes,
		PhotoURL:  req.PhotoURL,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}
	s.log.Info("Pet created", "pet_id", p.ID.String(), "owner_id", ownerID.String())
	return p, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Pet, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("pet", err)
		}
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	// Someone else's pet is reported as missing.
	if p.OwnerID != ownerID {
		return nil, apperrors.NewNotFound("pet", nil)
	}
	return p, nil
}

// Update applies only the fields present in req.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, req *model.UpdatePetRequest) (*model.Pet, error) {
	p, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Species != nil {
		p.Species = *req.Species
	}
	if req.Breed != nil {
		p.Breed = strings.TrimSpace(*req.Breed)
	}
	if req.BirthDate != nil {
		p.BirthDate = req.BirthDate
	}
	if req.WeightKg != nil {
		p.WeightKg = *req.WeightKg
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	if req.PhotoURL != nil {
		p.PhotoURL = *req.PhotoURL
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("pet", err)
		}
		return nil, fmt.Errorf("failed to update pet: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound("pet", err)
		case errors.Is(err, repository.ErrConflict):
			return apperrors.NewConflict("pet has bookings and cannot be deleted", err)
		}
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	s.log.Info("Pet deleted", "pet_id", id.String(), "owner_id", ownerID.String())
	return nil
}

package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/onboarding"
	"github.com/petify/petify-api/internal/repository"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/storage"
)

// Service exposes the onboarding wizard to authenticated owners.
type Service struct {
	store     *onboarding.Store
	submitter onboarding.Submitter
	uploader  storage.Uploader
	log       *logger.Logger
}

// NewService wires the wizard store. A nil uploader disables media uploads.
func NewService(store *onboarding.Store, submitter onboarding.Submitter, uploader storage.Uploader, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		submitter: submitter,
		uploader:  uploader,
		log:       log,
	}
}

func (s *Service) Start(ownerID uuid.UUID) onboarding.State {
	w := s.store.Create(ownerID)
	s.log.Debug("Onboarding session started", "session_id", w.ID().String(), "owner_id", ownerID.String())
	return w.State()
}

func (s *Service) State(id, ownerID uuid.UUID) (onboarding.State, error) {
	w, err := s.store.Get(id, ownerID)
	if err != nil {
		return onboarding.State{}, mapError(err)
	}
	return w.State(), nil
}

// Next decodes raw as the payload of the session's current step.
func (s *Service) Next(id, ownerID uuid.UUID, raw json.RawMessage) (onboarding.State, error) {
	w, err := s.store.Get(id, ownerID)
	if err != nil {
		return onboarding.State{}, mapError(err)
	}

	current := w.State()
	if current.Submitted {
		return current, mapError(onboarding.ErrAlreadySubmitted)
	}

	in, err := onboarding.DecodeInput(current.Step, raw)
	if err != nil {
		if errors.Is(err, onboarding.ErrUnknownStep) {
			return current, mapError(err)
		}
		return current, apperrors.NewBadRequest("malformed step payload", err)
	}

	st, err := w.Next(in)
	if err != nil {
		return st, mapError(err)
	}
	return st, nil
}

func (s *Service) Previous(id, ownerID uuid.UUID) (onboarding.State, error) {
	w, err := s.store.Get(id, ownerID)
	if err != nil {
		return onboarding.State{}, mapError(err)
	}
	st, err := w.Previous()
	if err != nil {
		return st, mapError(err)
	}
	return st, nil
}

func (s *Service) Submit(ctx context.Context, id, ownerID uuid.UUID, consents onboarding.ReviewInput) (onboarding.State, error) {
	w, err := s.store.Get(id, ownerID)
	if err != nil {
		return onboarding.State{}, mapError(err)
	}

	st, err := w.Submit(ctx, consents, s.submitter)
	if err != nil {
		var submitErr *onboarding.SubmitError
		if errors.As(err, &submitErr) {
			s.log.Error(submitErr.Err, "Provider submission failed", "session_id", id.String())
		}
		return st, mapError(err)
	}

	s.log.Info("Onboarding completed", "session_id", id.String(), "provider_id", st.ProviderID.String())
	return st, nil
}

func (s *Service) Discard(id, ownerID uuid.UUID) error {
	if err := s.store.Discard(id, ownerID); err != nil {
		return mapError(err)
	}
	return nil
}

// Upload stores an image for the session and returns its public reference.
func (s *Service) Upload(ctx context.Context, id, ownerID uuid.UUID, r io.Reader) (*storage.Object, error) {
	if s.uploader == nil {
		return nil, apperrors.NewUnavailable("media uploads are not configured")
	}
	if _, err := s.store.Get(id, ownerID); err != nil {
		return nil, mapError(err)
	}

	body, contentType, err := storage.SniffImage(r)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedMedia) {
			return nil, apperrors.NewBadRequest("only JPEG, PNG, GIF and WebP images are accepted", err)
		}
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	obj, err := s.uploader.Upload(ctx, body, "onboarding/"+id.String())
	if err != nil {
		return nil, apperrors.NewBadGateway("image upload failed", err)
	}

	s.log.Debug("Onboarding media uploaded", "session_id", id.String(), "content_type", contentType, "public_id", obj.PublicID)
	return obj, nil
}

func mapError(err error) error {
	var verr *onboarding.ValidationError
	if errors.As(err, &verr) {
		return apperrors.NewValidation(fmt.Sprintf("%s step is incomplete", verr.Step), verr.Fields)
	}

	var submitErr *onboarding.SubmitError
	if errors.As(err, &submitErr) {
		if errors.Is(submitErr.Err, repository.ErrConflict) {
			return apperrors.NewConflict("a provider with these details already exists", err)
		}
		if appErr, ok := apperrors.As(submitErr.Err); ok {
			return appErr
		}
		return apperrors.NewBadGateway("submission failed, please retry", err)
	}

	switch {
	case errors.Is(err, onboarding.ErrSessionNotFound):
		return apperrors.NewNotFound("onboarding session", err)
	case errors.Is(err, onboarding.ErrSubmissionInFlight),
		errors.Is(err, onboarding.ErrAlreadySubmitted),
		errors.Is(err, onboarding.ErrStepMismatch),
		errors.Is(err, onboarding.ErrNotReadyToSubmit):
		return apperrors.NewConflict(trimPrefix(err), err)
	case errors.Is(err, onboarding.ErrReviewRequiresSubmit),
		errors.Is(err, onboarding.ErrUnknownStep):
		return apperrors.NewBadRequest(trimPrefix(err), err)
	}
	return err
}

func trimPrefix(err error) string {
	return strings.TrimPrefix(err.Error(), "onboarding: ")
}

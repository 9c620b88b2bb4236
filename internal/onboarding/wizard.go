package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/pkg/validator"
)

var (
	ErrSubmissionInFlight   = errors.New("onboarding: submission in progress")
	ErrAlreadySubmitted     = errors.New("onboarding: application already submitted")
	ErrStepMismatch         = errors.New("onboarding: payload does not belong to the current step")
	ErrReviewRequiresSubmit = errors.New("onboarding: the review step is completed by submitting")
	ErrNotReadyToSubmit     = errors.New("onboarding: submission is only allowed from the review step")
	ErrUnknownStep          = errors.New("onboarding: unknown step")
	ErrSessionNotFound      = errors.New("onboarding: session not found")
)

// ValidationError lists the fields that kept the wizard on its current step.
type ValidationError struct {
	Step   Step
	Fields validator.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("onboarding: %s has %d invalid field(s)", e.Step, len(e.Fields))
}

// SubmitError wraps a failed backend write. The wizard stays on review.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return "onboarding: submission failed: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Submitter persists a finished application in one write.
type Submitter interface {
	SubmitProvider(ctx context.Context, provider *model.Provider, services []*model.Service) error
}

// State is a read-only snapshot of a wizard.
type State struct {
	ID         uuid.UUID  `json:"id"`
	Step       Step       `json:"step"`
	StepIndex  int        `json:"step_index"`
	TotalSteps int        `json:"total_steps"`
	Path       []Step     `json:"path"`
	Draft      Draft      `json:"draft"`
	Submitting bool       `json:"submitting"`
	Submitted  bool       `json:"submitted"`
	ProviderID *uuid.UUID `json:"provider_id,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Wizard drives one provider application from the first step to submission.
// All methods are safe for concurrent use; mutations are serialized.
type Wizard struct {
	mu         sync.Mutex
	id         uuid.UUID
	ownerID    uuid.UUID
	step       Step
	draft      Draft
	submitting bool
	providerID uuid.UUID
	lastError  string
	createdAt  time.Time
	updatedAt  time.Time
	now        func() time.Time
}

func NewWizard(ownerID uuid.UUID) *Wizard {
	now := time.Now()
	return &Wizard{
		id:        uuid.New(),
		ownerID:   ownerID,
		step:      InitialStep,
		createdAt: now,
		updatedAt: now,
		now:       time.Now,
	}
}

func (w *Wizard) ID() uuid.UUID      { return w.id }
func (w *Wizard) OwnerID() uuid.UUID { return w.ownerID }

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

// Next validates in against the current step. On success the partial data
// is merged and the wizard advances one step; on failure nothing changes.
func (w *Wizard) Next(in Input) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.navigableLocked(); err != nil {
		return w.stateLocked(), err
	}
	if in == nil || in.Step() != w.step {
		return w.stateLocked(), ErrStepMismatch
	}
	if w.step == StepReview {
		return w.stateLocked(), ErrReviewRequiresSubmit
	}
	if errs := in.validate(&w.draft); len(errs) > 0 {
		return w.stateLocked(), &ValidationError{Step: w.step, Fields: errs}
	}

	in.apply(&w.draft)
	if next, ok := w.step.Next(&w.draft); ok {
		w.step = next
	}
	w.lastError = ""
	w.updatedAt = w.now()
	return w.stateLocked(), nil
}

// Previous steps back without validating or discarding anything. It is a
// no-op on the first step.
func (w *Wizard) Previous() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.navigableLocked(); err != nil {
		return w.stateLocked(), err
	}
	if prev, ok := w.step.Previous(&w.draft); ok {
		w.step = prev
		w.updatedAt = w.now()
	}
	return w.stateLocked(), nil
}

// Submit records the consents and writes the whole application through s.
// The lock is released during the write; navigation attempted meanwhile
// fails with ErrSubmissionInFlight.
func (w *Wizard) Submit(ctx context.Context, consents ReviewInput, s Submitter) (State, error) {
	w.mu.Lock()
	if err := w.navigableLocked(); err != nil {
		defer w.mu.Unlock()
		return w.stateLocked(), err
	}
	if w.step != StepReview {
		defer w.mu.Unlock()
		return w.stateLocked(), ErrNotReadyToSubmit
	}
	if errs := consents.validate(&w.draft); len(errs) > 0 {
		defer w.mu.Unlock()
		return w.stateLocked(), &ValidationError{Step: StepReview, Fields: errs}
	}

	consents.apply(&w.draft)
	provider, services := BuildProvider(w.ownerID, w.draft, w.now())
	w.submitting = true
	w.mu.Unlock()

	err := s.SubmitProvider(ctx, provider, services)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	w.updatedAt = w.now()

	if err != nil {
		w.lastError = err.Error()
		return w.stateLocked(), &SubmitError{Err: err}
	}

	if next, ok := w.step.Next(&w.draft); ok {
		w.step = next
	}
	w.providerID = provider.ID
	w.lastError = ""
	return w.stateLocked(), nil
}

// busy reports whether a submission is running. Used by the store before discarding.
func (w *Wizard) busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

func (w *Wizard) navigableLocked() error {
	if w.submitting {
		return ErrSubmissionInFlight
	}
	if w.step == StepSubmit {
		return ErrAlreadySubmitted
	}
	return nil
}

func (w *Wizard) stateLocked() State {
	path := Path(w.draft.Category)
	st := State{
		ID:         w.id,
		Step:       w.step,
		StepIndex:  indexOf(path, w.step),
		TotalSteps: len(path),
		Path:       path,
		Draft:      w.draft.clone(),
		Submitting: w.submitting,
		Submitted:  w.step == StepSubmit,
		LastError:  w.lastError,
		CreatedAt:  w.createdAt,
		UpdatedAt:  w.updatedAt,
	}
	if w.providerID != uuid.Nil {
		id := w.providerID
		st.ProviderID = &id
	}
	return st
}

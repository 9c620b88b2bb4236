package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petify/petify-api/internal/model"
)

type recordingSubmitter struct {
	mu       sync.Mutex
	err      error
	provider *model.Provider
	services []*model.Service
	calls    int
}

func (s *recordingSubmitter) SubmitProvider(_ context.Context, p *model.Provider, services []*model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.provider = p
	s.services = services
	return nil
}

func validInput(step Step) Input {
	switch step {
	case StepProviderType:
		return ProviderTypeInput{Category: model.CategoryGrooming}
	case StepLocationMode:
		return LocationModeInput{Mode: model.LocationSingle}
	case StepAddresses:
		return AddressesInput{Addresses: []model.Address{{
			Street: "12 Bark Lane", City: "Austin", PostalCode: "78701", Country: "US",
		}}}
	case StepServiceSummary:
		return ServiceSummaryInput{Services: []ServiceOffering{{Name: "Bath", Price: 35}}}
	case StepDetailedServices:
		return DetailedServicesInput{Services: []DetailedService{{
			Name: "Full groom", DurationMinutes: 90, Price: 80,
			Gallery: []string{"https://img.example.com/groom.jpg"},
		}}}
	case StepBranding:
		return BrandingInput{LogoURL: "https://img.example.com/logo.png"}
	case StepBusinessDetails:
		return BusinessDetailsInput{
			Name:         "Happy Paws",
			Description:  "Gentle grooming for every breed since 2012.",
			ContactEmail: "hello@happypaws.test",
			ContactPhone: "+15125550100",
			Address:      "12 Bark Lane, Austin",
		}
	case StepPricing:
		return PricingInput{BasePrice: 40, HourlyRate: 55, Currency: "USD"}
	case StepAvailability:
		return AvailabilityInput{Week: []model.DayHours{{Day: "mon", Enabled: true, Start: "09:00", End: "17:00"}}}
	}
	return nil
}

// advanceTo drives a fresh wizard with the given category up to target.
func advanceTo(t *testing.T, category model.ProviderCategory, target Step) *Wizard {
	t.Helper()
	w := NewWizard(uuid.New())
	for w.State().Step != target {
		step := w.State().Step
		in := validInput(step)
		if step == StepProviderType {
			in = ProviderTypeInput{Category: category}
		}
		_, err := w.Next(in)
		require.NoError(t, err, "advancing from %s", step)
	}
	return w
}

func TestWizard_InitialState(t *testing.T) {
	w := NewWizard(uuid.New())
	st := w.State()

	assert.Equal(t, StepProviderType, st.Step)
	assert.Equal(t, 0, st.StepIndex)
	assert.Equal(t, Draft{}.clone(), st.Draft)
	assert.False(t, st.Submitted)
}

func TestWizard_NextWithMissingRequiredFieldChangesNothing(t *testing.T) {
	tests := []struct {
		name  string
		step  Step
		input Input
		field string
	}{
		{"no category", StepProviderType, ProviderTypeInput{}, "category"},
		{"no addresses", StepAddresses, AddressesInput{}, "addresses"},
		{"address without city", StepAddresses, AddressesInput{Addresses: []model.Address{{Street: "1 Main", PostalCode: "1", Country: "US"}}}, "addresses[0].city"},
		{"unnamed service", StepServiceSummary, ServiceSummaryInput{Services: []ServiceOffering{{Price: 10}}}, "services[0].name"},
		{"session without duration", StepDetailedServices, DetailedServicesInput{Services: []DetailedService{{Name: "Groom", Price: 10}}}, "services[0].duration_minutes"},
		{"no logo", StepBranding, BrandingInput{}, "logo_url"},
		{"bad email", StepBusinessDetails, BusinessDetailsInput{Name: "x", Description: "a long enough description", ContactEmail: "nope", ContactPhone: "5550100100", Address: "here"}, "contact_email"},
		{"no currency", StepPricing, PricingInput{BasePrice: 10}, "currency"},
		{"no working day", StepAvailability, AvailabilityInput{}, "week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := advanceTo(t, model.CategoryGrooming, tt.step)
			before := w.State()

			after, err := w.Next(tt.input)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.step, verr.Step)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, before.Step, after.Step)
			assert.Equal(t, before.StepIndex, after.StepIndex)
			assert.Equal(t, before.Draft, after.Draft)
		})
	}
}

func TestWizard_NextAdvancesByOneAndOnlyTouchesOwnFields(t *testing.T) {
	w := advanceTo(t, model.CategoryGrooming, StepBranding)
	before := w.State()

	after, err := w.Next(validInput(StepBranding))
	require.NoError(t, err)

	assert.Equal(t, StepBusinessDetails, after.Step)
	assert.Equal(t, before.StepIndex+1, after.StepIndex)
	assert.Equal(t, "https://img.example.com/logo.png", after.Draft.Branding.LogoURL)

	// Everything outside branding is exactly as it was.
	expected := before.Draft
	expected.Branding = after.Draft.Branding
	assert.Equal(t, expected, after.Draft)
}

func TestWizard_EveryStepAdvancesByExactlyOne(t *testing.T) {
	for _, category := range []model.ProviderCategory{model.CategoryGrooming, model.CategoryAds} {
		w := NewWizard(uuid.New())
		for {
			st := w.State()
			if st.Step == StepReview {
				break
			}
			in := validInput(st.Step)
			if st.Step == StepProviderType {
				in = ProviderTypeInput{Category: category}
			}
			next, err := w.Next(in)
			require.NoError(t, err)
			assert.Equal(t, st.StepIndex+1, next.StepIndex, "%s from %s", category, st.Step)
		}
	}
}

func TestWizard_AdsSkipsDetailedServices(t *testing.T) {
	w := advanceTo(t, model.CategoryAds, StepServiceSummary)

	st, err := w.Next(validInput(StepServiceSummary))
	require.NoError(t, err)
	assert.Equal(t, StepBranding, st.Step)
	assert.NotContains(t, st.Path, StepDetailedServices)

	st, err = w.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepServiceSummary, st.Step)
}

func TestWizard_TimedCategoriesVisitDetailedServices(t *testing.T) {
	w := advanceTo(t, model.CategoryVeterinary, StepServiceSummary)

	st, err := w.Next(validInput(StepServiceSummary))
	require.NoError(t, err)
	assert.Equal(t, StepDetailedServices, st.Step)

	_, err = w.Next(validInput(StepDetailedServices))
	require.NoError(t, err)
	st, err = w.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepDetailedServices, st.Step)
}

func TestWizard_PreviousKeepsDataAndIsNoOpAtStart(t *testing.T) {
	w := NewWizard(uuid.New())
	st, err := w.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepProviderType, st.Step)

	w = advanceTo(t, model.CategoryTraining, StepPricing)
	before := w.State()

	st, err = w.Previous()
	require.NoError(t, err)
	assert.Equal(t, StepBusinessDetails, st.Step)
	assert.Equal(t, before.Draft, st.Draft)
}

func TestWizard_StepMismatch(t *testing.T) {
	w := NewWizard(uuid.New())
	_, err := w.Next(validInput(StepBranding))
	assert.ErrorIs(t, err, ErrStepMismatch)
}

func TestWizard_TrainingRequiresHourlyRate(t *testing.T) {
	w := advanceTo(t, model.CategoryTraining, StepPricing)

	_, err := w.Next(PricingInput{BasePrice: 40, Currency: "usd"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "hourly_rate")
}

func TestWizard_AdsDoesNotRequireAvailability(t *testing.T) {
	w := advanceTo(t, model.CategoryAds, StepAvailability)

	st, err := w.Next(AvailabilityInput{})
	require.NoError(t, err)
	assert.Equal(t, StepReview, st.Step)
}

func TestWizard_SubmitIncludesDetailedServicesOnlyForTimedCategories(t *testing.T) {
	tests := []struct {
		category     model.ProviderCategory
		wantSessions int
	}{
		{model.CategoryGrooming, 1},
		{model.CategoryTraining, 1},
		{model.CategoryVeterinary, 1},
		{model.CategoryAds, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			w := advanceTo(t, tt.category, StepReview)
			sub := &recordingSubmitter{}

			st, err := w.Submit(context.Background(), ReviewInput{AcceptTerms: true, AcceptPrivacy: true}, sub)
			require.NoError(t, err)
			assert.True(t, st.Submitted)
			assert.Equal(t, StepSubmit, st.Step)
			require.NotNil(t, st.ProviderID)
			assert.Equal(t, sub.provider.ID, *st.ProviderID)

			sessions, listings := 0, 0
			for _, s := range sub.services {
				switch s.Kind {
				case model.ServiceKindSession:
					sessions++
					assert.Equal(t, 90, s.DurationMinutes)
				case model.ServiceKindListing:
					listings++
				}
			}
			assert.Equal(t, tt.wantSessions, sessions)
			assert.Equal(t, 1, listings)
			assert.Equal(t, tt.category, sub.provider.Category)
			assert.Equal(t, model.ProviderStatusPending, sub.provider.Status)
			assert.Equal(t, "usd", sub.provider.Currency)
			if tt.wantSessions == 0 {
				assert.Empty(t, sub.provider.Availability)
				assert.Zero(t, sub.provider.HourlyRate)
			}
		})
	}
}

func TestWizard_AdsOmitsDetailedServicesEnteredBeforeCategoryChange(t *testing.T) {
	w := advanceTo(t, model.CategoryGrooming, StepBranding)
	for w.State().Step != StepProviderType {
		_, err := w.Previous()
		require.NoError(t, err)
	}
	_, err := w.Next(ProviderTypeInput{Category: model.CategoryAds})
	require.NoError(t, err)
	for w.State().Step != StepReview {
		_, err := w.Next(validInput(w.State().Step))
		require.NoError(t, err)
	}

	sub := &recordingSubmitter{}
	_, err = w.Submit(context.Background(), ReviewInput{AcceptTerms: true, AcceptPrivacy: true}, sub)
	require.NoError(t, err)
	for _, s := range sub.services {
		assert.Equal(t, model.ServiceKindListing, s.Kind)
	}
}

func TestWizard_SubmitRequiresReviewAndConsents(t *testing.T) {
	w := advanceTo(t, model.CategoryGrooming, StepPricing)
	sub := &recordingSubmitter{}

	_, err := w.Submit(context.Background(), ReviewInput{AcceptTerms: true, AcceptPrivacy: true}, sub)
	assert.ErrorIs(t, err, ErrNotReadyToSubmit)

	w = advanceTo(t, model.CategoryGrooming, StepReview)
	_, err = w.Submit(context.Background(), ReviewInput{AcceptTerms: true}, sub)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "accept_privacy")
	assert.Zero(t, sub.calls)

	_, err = w.Next(ReviewInput{AcceptTerms: true, AcceptPrivacy: true})
	assert.ErrorIs(t, err, ErrReviewRequiresSubmit)
}

func TestWizard_FailedSubmitStaysOnReviewForRetry(t *testing.T) {
	w := advanceTo(t, model.CategoryGrooming, StepReview)
	sub := &recordingSubmitter{err: errors.New("connection reset")}
	consents := ReviewInput{AcceptTerms: true, AcceptPrivacy: true}

	st, err := w.Submit(context.Background(), consents, sub)
	var serr *SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepReview, st.Step)
	assert.False(t, st.Submitted)
	assert.Contains(t, st.LastError, "connection reset")
	assert.Equal(t, 1, sub.calls)

	sub.err = nil
	st, err = w.Submit(context.Background(), consents, sub)
	require.NoError(t, err)
	assert.True(t, st.Submitted)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 2, sub.calls)

	_, err = w.Previous()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

type blockingSubmitter struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSubmitter) SubmitProvider(ctx context.Context, _ *model.Provider, _ []*model.Service) error {
	close(s.entered)
	<-s.release
	return nil
}

func TestWizard_NavigationDuringSubmissionIsRejected(t *testing.T) {
	w := advanceTo(t, model.CategoryGrooming, StepReview)
	sub := &blockingSubmitter{entered: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background(), ReviewInput{AcceptTerms: true, AcceptPrivacy: true}, sub)
		done <- err
	}()

	select {
	case <-sub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("submitter was never called")
	}

	assert.True(t, w.State().Submitting)
	_, err := w.Previous()
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = w.Next(validInput(StepReview))
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = w.Submit(context.Background(), ReviewInput{AcceptTerms: true, AcceptPrivacy: true}, &recordingSubmitter{})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(sub.release)
	require.NoError(t, <-done)
	assert.True(t, w.State().Submitted)
}

func TestPath(t *testing.T) {
	assert.Equal(t, []Step{
		StepProviderType, StepLocationMode, StepAddresses, StepServiceSummary, StepDetailedServices,
		StepBranding, StepBusinessDetails, StepPricing, StepAvailability, StepReview, StepSubmit,
	}, Path(model.CategoryGrooming))

	ads := Path(model.CategoryAds)
	assert.Len(t, ads, 10)
	assert.NotContains(t, ads, StepDetailedServices)
}

func TestDecodeInput(t *testing.T) {
	in, err := DecodeInput(StepPricing, json.RawMessage(`{"base_price": 25, "currency": "eur"}`))
	require.NoError(t, err)
	assert.Equal(t, StepPricing, in.Step())
	assert.Equal(t, 25.0, in.(*PricingInput).BasePrice)

	_, err = DecodeInput(Step("bogus"), nil)
	assert.ErrorIs(t, err, ErrUnknownStep)

	_, err = DecodeInput(StepPricing, json.RawMessage(`{"base_price": "lots"}`))
	assert.Error(t, err)
}

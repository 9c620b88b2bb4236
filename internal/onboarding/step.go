package onboarding

import "github.com/petify/petify-api/internal/model"

// Step identifies one screen of the provider onboarding wizard.
type Step string

const (
	StepProviderType     Step = "provider_type"
	StepLocationMode     Step = "location_mode"
	StepAddresses        Step = "addresses"
	StepServiceSummary   Step = "service_summary"
	StepDetailedServices Step = "detailed_services"
	StepBranding         Step = "branding"
	StepBusinessDetails  Step = "business_details"
	StepPricing          Step = "pricing"
	StepAvailability     Step = "availability"
	StepReview           Step = "review"
	StepSubmit           Step = "submit"
)

// InitialStep is where every wizard starts.
const InitialStep = StepProviderType

type transition struct {
	next func(d *Draft) Step
	prev func(d *Draft) Step
}

func to(s Step) func(*Draft) Step {
	return func(*Draft) Step { return s }
}

// transitions is the whole navigation graph. A nil prev means the step is
// the first one; a nil next means the step is terminal.
var transitions = map[Step]transition{
	StepProviderType: {next: to(StepLocationMode)},
	StepLocationMode: {next: to(StepAddresses), prev: to(StepProviderType)},
	StepAddresses:    {next: to(StepServiceSummary), prev: to(StepLocationMode)},
	StepServiceSummary: {
		next: func(d *Draft) Step {
			if d.Category.OffersTimedServices() {
				return StepDetailedServices
			}
			return StepBranding
		},
		prev: to(StepAddresses),
	},
	StepDetailedServices: {next: to(StepBranding), prev: to(StepServiceSummary)},
	StepBranding: {
		next: to(StepBusinessDetails),
		prev: func(d *Draft) Step {
			if d.Category.OffersTimedServices() {
				return StepDetailedServices
			}
			return StepServiceSummary
		},
	},
	StepBusinessDetails: {next: to(StepPricing), prev: to(StepBranding)},
	StepPricing:         {next: to(StepAvailability), prev: to(StepBusinessDetails)},
	StepAvailability:    {next: to(StepReview), prev: to(StepPricing)},
	StepReview:          {next: to(StepSubmit), prev: to(StepAvailability)},
	StepSubmit:          {},
}

// Valid reports whether s names a known step.
func (s Step) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the step after s for the given draft, or false if s is terminal.
func (s Step) Next(d *Draft) (Step, bool) {
	t, ok := transitions[s]
	if !ok || t.next == nil {
		return s, false
	}
	return t.next(d), true
}

// Previous returns the step before s, or false at the initial step.
func (s Step) Previous(d *Draft) (Step, bool) {
	t, ok := transitions[s]
	if !ok || t.prev == nil {
		return s, false
	}
	return t.prev(d), true
}

// Path lists the steps a wizard with this category walks through, in order.
func Path(category model.ProviderCategory) []Step {
	d := &Draft{Category: category}
	path := []Step{InitialStep}
	for s := InitialStep; ; {
		next, ok := s.Next(d)
		if !ok {
			return path
		}
		path = append(path, next)
		s = next
	}
}

func indexOf(path []Step, s Step) int {
	for i, p := range path {
		if p == s {
			return i
		}
	}
	return -1
}

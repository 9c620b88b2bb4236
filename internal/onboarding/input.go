package onboarding

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/pkg/validator"
)

// Input is the partial update submitted for one step. validate may read the
// draft to decide what is required; apply writes only the fields the step owns.
type Input interface {
	Step() Step
	validate(d *Draft) validator.FieldErrors
	apply(d *Draft)
}

type ProviderTypeInput struct {
	Category model.ProviderCategory `json:"category" validate:"required,oneof=grooming training veterinary ads"`
}

func (ProviderTypeInput) Step() Step { return StepProviderType }

func (in ProviderTypeInput) validate(*Draft) validator.FieldErrors { return validator.Struct(in) }

func (in ProviderTypeInput) apply(d *Draft) { d.Category = in.Category }

type LocationModeInput struct {
	Mode model.LocationMode `json:"location_mode" validate:"required,oneof=single multiple"`
}

func (LocationModeInput) Step() Step { return StepLocationMode }

func (in LocationModeInput) validate(*Draft) validator.FieldErrors { return validator.Struct(in) }

func (in LocationModeInput) apply(d *Draft) { d.LocationMode = in.Mode }

type AddressesInput struct {
	Addresses []model.Address `json:"addresses" validate:"required,min=1,max=10,dive"`
}

func (AddressesInput) Step() Step { return StepAddresses }

func (in AddressesInput) validate(d *Draft) validator.FieldErrors {
	errs := validator.Struct(in)
	if d.LocationMode == model.LocationSingle && len(in.Addresses) > 1 {
		errs = with(errs, "addresses", "a single location takes exactly one address")
	}
	return errs
}

func (in AddressesInput) apply(d *Draft) {
	d.Addresses = append([]model.Address(nil), in.Addresses...)
}

type ServiceSummaryInput struct {
	Services []ServiceOffering `json:"services" validate:"required,min=1,max=50,dive"`
}

func (ServiceSummaryInput) Step() Step { return StepServiceSummary }

func (in ServiceSummaryInput) validate(*Draft) validator.FieldErrors { return validator.Struct(in) }

func (in ServiceSummaryInput) apply(d *Draft) {
	d.ServiceSummary = append([]ServiceOffering(nil), in.Services...)
}

type DetailedServicesInput struct {
	Services []DetailedService `json:"services" validate:"required,min=1,max=50,dive"`
}

func (DetailedServicesInput) Step() Step { return StepDetailedServices }

func (in DetailedServicesInput) validate(*Draft) validator.FieldErrors { return validator.Struct(in) }

func (in DetailedServicesInput) apply(d *Draft) {
	d.DetailedServices = make([]DetailedService, len(in.Services))
	for i, s := range in.Services {
		s.Gallery = append([]string(nil), s.Gallery...)
		d.DetailedServices[i] = s
	}
}

type BrandingInput struct {
	LogoURL  string   `json:"logo_url" validate:"required,url"`
	CoverURL string   `json:"cover_url" validate:"omitempty,url"`
	Photos   []string `json:"photos" validate:"max=20,dive,url"`
}

func (BrandingInput) Step() Step { return StepBranding }

func (in BrandingInput) validate(*Draft) validator.FieldErrors { return validator.Struct(in) }

func (in BrandingInput) apply(d *Draft) {
	d.Branding = Branding{
		LogoURL:  in.LogoURL,
		CoverURL: in.CoverURL,
		Photos:   append([]string(nil), in.Photos...),
	}
}

type BusinessDetailsInput struct {
	Name         string `json:"name" validate:"required,max=120"`
	Description  string `json:"description" validate:"required,min=20,max=2000"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone" validate:"required,min=7,max=20"`
	Address      string `json:"address" validate:"required,max=300"`
}

func (BusinessDetailsInput) Step() Step { return StepBusinessDetails }

func (in BusinessDetailsInput) validate(*Draft) validator.FieldErrors { return validator.Struct(in) }

func (in BusinessDetailsInput) apply(d *Draft) {
	d.Business = BusinessDetails(in)
}

type PricingInput struct {
	BasePrice  float64 `json:"base_price" validate:"gt=0"`
	HourlyRate float64 `json:"hourly_rate" validate:"gte=0"`
	Currency   string  `json:"currency" validate:"required,len=3"`
}

func (PricingInput) Step() Step { return StepPricing }

func (in PricingInput) validate(d *Draft) validator.FieldErrors {
	errs := validator.Struct(in)
	if d.Category == model.CategoryTraining && in.HourlyRate <= 0 {
		errs = with(errs, "hourly_rate", "is required for training providers")
	}
	return errs
}

func (in PricingInput) apply(d *Draft) {
	d.Pricing.BasePrice = in.BasePrice
	d.Pricing.HourlyRate = in.HourlyRate
	d.Pricing.Currency = in.Currency
}

type AvailabilityInput struct {
	Week []model.DayHours `json:"week" validate:"max=7"`
}

var weekdays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true,
}

func (AvailabilityInput) Step() Step { return StepAvailability }

// validate requires a working day only for categories that take bookings.
func (in AvailabilityInput) validate(d *Draft) validator.FieldErrors {
	errs := validator.Struct(in)

	seen := make(map[string]bool, len(in.Week))
	enabled := 0
	for i, day := range in.Week {
		field := fmt.Sprintf("week[%d]", i)
		if !weekdays[day.Day] {
			errs = with(errs, field+".day", "must be one of: mon tue wed thu fri sat sun")
			continue
		}
		if seen[day.Day] {
			errs = with(errs, field+".day", "is listed twice")
			continue
		}
		seen[day.Day] = true
		if !day.Enabled {
			continue
		}
		enabled++
		start, err1 := time.Parse("15:04", day.Start)
		end, err2 := time.Parse("15:04", day.End)
		if err1 != nil || err2 != nil {
			errs = with(errs, field, "start and end must be HH:MM")
			continue
		}
		if !end.After(start) {
			errs = with(errs, field, "end must be after start")
		}
	}

	if d.Category.OffersTimedServices() && enabled == 0 {
		errs = with(errs, "week", "at least one working day is required")
	}
	return errs
}

func (in AvailabilityInput) apply(d *Draft) {
	d.Pricing.Week = append([]model.DayHours(nil), in.Week...)
}

// ReviewInput carries the consents given on the review screen. It is
// handed to Submit rather than Next.
type ReviewInput struct {
	AcceptTerms   bool `json:"accept_terms"`
	AcceptPrivacy bool `json:"accept_privacy"`
}

func (ReviewInput) Step() Step { return StepReview }

func (in ReviewInput) validate(*Draft) validator.FieldErrors {
	var errs validator.FieldErrors
	if !in.AcceptTerms {
		errs = with(errs, "accept_terms", "must be accepted")
	}
	if !in.AcceptPrivacy {
		errs = with(errs, "accept_privacy", "must be accepted")
	}
	return errs
}

func (in ReviewInput) apply(d *Draft) {
	d.Consents = Consents{Terms: in.AcceptTerms, Privacy: in.AcceptPrivacy}
}

func with(errs validator.FieldErrors, field, msg string) validator.FieldErrors {
	if errs == nil {
		errs = validator.FieldErrors{}
	}
	if _, exists := errs[field]; !exists {
		errs[field] = msg
	}
	return errs
}

// DecodeInput parses the JSON body posted for step.
func DecodeInput(step Step, data json.RawMessage) (Input, error) {
	var in Input
	switch step {
	case StepProviderType:
		in = &ProviderTypeInput{}
	case StepLocationMode:
		in = &LocationModeInput{}
	case StepAddresses:
		in = &AddressesInput{}
	case StepServiceSummary:
		in = &ServiceSummaryInput{}
	case StepDetailedServices:
		in = &DetailedServicesInput{}
	case StepBranding:
		in = &BrandingInput{}
	case StepBusinessDetails:
		in = &BusinessDetailsInput{}
	case StepPricing:
		in = &PricingInput{}
	case StepAvailability:
		in = &AvailabilityInput{}
	case StepReview:
		in = &ReviewInput{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, in); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", step, err)
		}
	}
	return in, nil
}

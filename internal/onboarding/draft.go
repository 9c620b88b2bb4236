package onboarding

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
)

// Draft is the provider application being assembled by the wizard. Each
// group of fields is owned by exactly one step.
type Draft struct {
	Category         model.ProviderCategory `json:"category"`
	LocationMode     model.LocationMode     `json:"location_mode"`
	Addresses        []model.Address        `json:"addresses"`
	ServiceSummary   []ServiceOffering      `json:"service_summary"`
	DetailedServices []DetailedService      `json:"detailed_services"`
	Branding         Branding               `json:"branding"`
	Business         BusinessDetails        `json:"business"`
	Pricing          Pricing                `json:"pricing"`
	Consents         Consents               `json:"consents"`
}

type ServiceOffering struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Price       float64 `json:"price" validate:"gt=0"`
}

type DetailedService struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Description     string   `json:"description" validate:"max=1000"`
	DurationMinutes int      `json:"duration_minutes" validate:"gt=0,lte=1440"`
	Price           float64  `json:"price" validate:"gt=0"`
	Gallery         []string `json:"gallery" validate:"max=10,dive,url"`
}

type Branding struct {
	LogoURL  string   `json:"logo_url"`
	CoverURL string   `json:"cover_url"`
	Photos   []string `json:"photos"`
}

type BusinessDetails struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
}

// Pricing holds the rate card and the weekly schedule. The schedule is
// filled in by the availability step.
type Pricing struct {
	BasePrice  float64          `json:"base_price"`
	HourlyRate float64          `json:"hourly_rate"`
	Currency   string           `json:"currency"`
	Week       []model.DayHours `json:"week"`
}

type Consents struct {
	Terms   bool `json:"terms"`
	Privacy bool `json:"privacy"`
}

// clone returns a copy that shares no slices with d.
func (d Draft) clone() Draft {
	out := d
	out.Addresses = append([]model.Address(nil), d.Addresses...)
	out.ServiceSummary = append([]ServiceOffering(nil), d.ServiceSummary...)
	out.DetailedServices = make([]DetailedService, len(d.DetailedServices))
	for i, s := range d.DetailedServices {
		s.Gallery = append([]string(nil), s.Gallery...)
		out.DetailedServices[i] = s
	}
	out.Branding.Photos = append([]string(nil), d.Branding.Photos...)
	out.Pricing.Week = append([]model.DayHours(nil), d.Pricing.Week...)
	return out
}

// BuildProvider turns a completed draft into the records written on
// submission. Detailed services are only kept for categories that sell
// timed sessions.
func BuildProvider(ownerID uuid.UUID, d Draft, now time.Time) (*model.Provider, []*model.Service) {
	d = d.clone()
	timed := d.Category.OffersTimedServices()

	p := &model.Provider{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Category:          d.Category,
		Status:            model.ProviderStatusPending,
		BusinessName:      d.Business.Name,
		Description:       d.Business.Description,
		ContactEmail:      d.Business.ContactEmail,
		ContactPhone:      d.Business.ContactPhone,
		Address:           d.Business.Address,
		LocationMode:      d.LocationMode,
		Addresses:         d.Addresses,
		LogoURL:           d.Branding.LogoURL,
		CoverURL:          d.Branding.CoverURL,
		Photos:            d.Branding.Photos,
		BasePrice:         d.Pricing.BasePrice,
		Currency:          strings.ToLower(d.Pricing.Currency),
		Availability:      []model.DayHours{},
		TermsAcceptedAt:   now,
		PrivacyAcceptedAt: now,
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
	if timed {
		p.HourlyRate = d.Pricing.HourlyRate
		p.Availability = d.Pricing.Week
	}

	services := make([]*model.Service, 0, len(d.ServiceSummary)+len(d.DetailedServices))
	for _, s := range d.ServiceSummary {
		services = append(services, &model.Service{
			Name:        s.Name,
			Description: s.Description,
			Kind:        model.ServiceKindListing,
			Price:       s.Price,
			Gallery:     []string{},
		})
	}
	if timed {
		for _, s := range d.DetailedServices {
			gallery := s.Gallery
			if gallery == nil {
				gallery = []string{}
			}
			services = append(services, &model.Service{
				Name:            s.Name,
				Description:     s.Description,
				Kind:            model.ServiceKindSession,
				Price:           s.Price,
				DurationMinutes: s.DurationMinutes,
				Gallery:         gallery,
			})
		}
	}

	return p, services
}

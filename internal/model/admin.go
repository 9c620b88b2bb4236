package model

// AdminStats is the dashboard summary.
type AdminStats struct {
	Users     int                    `json:"users"`
	Providers map[ProviderStatus]int `json:"providers"`
	Bookings  *BookingStats          `json:"bookings"`
}

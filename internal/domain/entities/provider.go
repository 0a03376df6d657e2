package entities

import "time"

// MovingProvider is one registry entry. Adding a provider is a data change:
// the simulated gateway prices any entry in the registry the same way.
type MovingProvider struct {
	ID                string           `json:"id" db:"id"`
	DisplayName       string           `json:"displayName" db:"display_name"`
	PriceMultiplier   float64          `json:"priceMultiplier" db:"price_multiplier"`
	Rating            float64          `json:"rating" db:"rating"`
	ReviewCount       int              `json:"reviewCount" db:"review_count"`
	EstimatedDuration string           `json:"estimatedDuration" db:"estimated_duration"`
	Services          []string         `json:"services"`
	SpecialOffers     []string         `json:"specialOffers"`
	Insurance         InsuranceOptions `json:"insurance"`
	Contact           Contact          `json:"contact"`

	// FailureRate is the probability [0,1] that a simulated call fails.
	FailureRate float64 `json:"failureRate" db:"failure_rate"`
	Disabled    bool    `json:"disabled,omitempty"`
}

// RateLimitState is a snapshot of one provider's request window.
type RateLimitState struct {
	ProviderID      string        `json:"providerId"`
	RequestCount    int           `json:"requestCount"`
	WindowStartedAt time.Time     `json:"windowStartedAt"`
	WindowLimit     int           `json:"windowLimit"`
	WindowDuration  time.Duration `json:"windowDuration"`
}

package entities

import (
	"time"
)

// AvailabilityTier describes how easily a provider can serve the move date.
type AvailabilityTier string

const (
	AvailabilityLimited   AvailabilityTier = "limited"
	AvailabilityGood      AvailabilityTier = "good"
	AvailabilityExcellent AvailabilityTier = "excellent"
)

// AvailabilityForDays derives the tier from days until the move date.
func AvailabilityForDays(days int) AvailabilityTier {
	switch {
	case days < 7:
		return AvailabilityLimited
	case days < 30:
		return AvailabilityGood
	default:
		return AvailabilityExcellent
	}
}

// InsuranceTier is one coverage level a provider sells.
type InsuranceTier struct {
	Coverage string `json:"coverage"`
	Cost     int    `json:"cost"`
}

// InsuranceOptions lists the basic and full-value coverage tiers.
type InsuranceOptions struct {
	Basic InsuranceTier `json:"basic"`
	Full  InsuranceTier `json:"full"`
}

// Contact holds provider contact details.
type Contact struct {
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// Quote is one provider's priced offer for a move request. Quotes are values
// and are not modified after a gateway returns them.
type Quote struct {
	ID                string           `json:"id"`
	ProviderID        string           `json:"providerId"`
	CompanyName       string           `json:"companyName"`
	TotalPrice        int              `json:"totalPrice"`
	Rating            float64          `json:"rating"`
	ReviewCount       int              `json:"reviewCount"`
	ServicesOffered   []string         `json:"servicesOffered"`
	EstimatedDuration string           `json:"estimatedDuration"`
	Availability      AvailabilityTier `json:"availability"`
	Insurance         InsuranceOptions `json:"insuranceOptions"`
	SpecialOffers     []string         `json:"specialOffers,omitempty"`
	Contact           Contact          `json:"contact"`
	RetrievedAt       time.Time        `json:"retrievedAt"`
	Fallback          bool             `json:"fallback,omitempty"`
}

// ProviderFailureReason classifies why a provider produced no quote.
type ProviderFailureReason string

const (
	FailureRateLimited ProviderFailureReason = "rate_limited"
	FailureUnavailable ProviderFailureReason = "unavailable"
	FailureTimeout     ProviderFailureReason = "timeout"
)

// ProviderFailure records one provider excluded from an aggregation.
type ProviderFailure struct {
	ProviderID string                `json:"providerId"`
	Reason     ProviderFailureReason `json:"reason"`
	Message    string                `json:"message"`
}

// MoveCategory is the distance class of a move.
type MoveCategory string

const (
	MoveCategoryLocal         MoveCategory = "local"
	MoveCategoryLongDistance  MoveCategory = "longDistance"
	MoveCategoryInternational MoveCategory = "international"
)

// MoveCategoryForDistance classifies a distance in miles.
func MoveCategoryForDistance(miles float64) MoveCategory {
	switch {
	case miles <= 100:
		return MoveCategoryLocal
	case miles <= 1000:
		return MoveCategoryLongDistance
	default:
		return MoveCategoryInternational
	}
}

// AggregateResult is the outcome of one fan-out across providers.
// SuccessfulResponses never exceeds ProvidersQueried, and Quotes is never
// empty: when nothing succeeded it holds fallback quotes.
type AggregateResult struct {
	Quotes              []Quote           `json:"quotes"`
	RequestedAt         time.Time         `json:"requestedAt"`
	ProvidersQueried    int               `json:"providersQueried"`
	SuccessfulResponses int               `json:"successfulResponses"`
	Failures            []ProviderFailure `json:"failures,omitempty"`
	UsedFallback        bool              `json:"usedFallback"`
	DistanceMiles       float64           `json:"distanceMiles"`
	MoveCategory        MoveCategory      `json:"moveCategory"`
}

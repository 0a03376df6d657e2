package movers

import (
	"math"
	"strings"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/pkg/config"
)

// LongDistanceMiles is the distance above which the long-distance mileage
// rate applies.
const LongDistanceMiles = 100

const (
	longDistanceRatePerMile = 1.2
	localRatePerMile        = 0.8
)

// PriceBreakdown is the provider-independent part of a quote.
type PriceBreakdown struct {
	BasePrice          int
	DistanceCharge     float64
	ServiceCharges     float64
	SpecialItemCharges float64
	Subtotal           float64
}

// Calculator turns a move request into a subtotal using the engine tables.
type Calculator struct {
	cfg *config.EngineConfig
}

// NewCalculator creates a new price calculator
func NewCalculator(cfg *config.EngineConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Breakdown computes the subtotal before any provider multiplier. Percentage
// surcharges apply to the running total, so service order matters.
func (c *Calculator) Breakdown(req entities.MoveRequest, distanceMiles float64) PriceBreakdown {
	b := PriceBreakdown{BasePrice: c.cfg.BasePriceFor(req.HomeSize)}

	if distanceMiles > LongDistanceMiles {
		b.DistanceCharge = distanceMiles * longDistanceRatePerMile
	} else {
		b.DistanceCharge = distanceMiles * localRatePerMile
	}

	running := float64(b.BasePrice) + b.DistanceCharge
	for _, service := range req.RequestedServices {
		surcharge, ok := c.cfg.ServiceSurcharges[strings.ToLower(service)]
		if !ok {
			continue
		}
		var add float64
		switch surcharge.Kind {
		case config.SurchargePercent:
			add = running * surcharge.Amount
		case config.SurchargeFlat:
			add = surcharge.Amount
		}
		b.ServiceCharges += add
		running += add
	}

	for _, item := range req.SpecialItems {
		add := float64(c.cfg.SpecialItemPrice(strings.ToLower(item)))
		b.SpecialItemCharges += add
		running += add
	}

	b.Subtotal = running
	return b
}

// FinalPrice applies a provider multiplier and rounds to whole dollars.
func FinalPrice(subtotal, multiplier float64) int {
	return int(math.Round(subtotal * multiplier))
}

package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

// DefaultBasePrice prices home sizes missing from the base-price table.
const DefaultBasePrice = 1500

// DefaultSpecialItemSurcharge prices special items missing from the table.
const DefaultSpecialItemSurcharge = 100

// SurchargeKind says how a service surcharge applies to the running total.
type SurchargeKind string

const (
	SurchargePercent SurchargeKind = "percent"
	SurchargeFlat    SurchargeKind = "flat"
)

// ServiceSurcharge is one requested-service price adjustment.
type ServiceSurcharge struct {
	Kind   SurchargeKind `json:"kind"`
	Amount float64       `json:"amount"`
}

// RateLimit is the request budget for one provider.
type RateLimit struct {
	RequestLimit     int `json:"requestLimit"`
	WindowDurationMs int `json:"windowDurationMs"`
}

// WindowDuration returns the window as a time.Duration.
func (r RateLimit) WindowDuration() time.Duration {
	return time.Duration(r.WindowDurationMs) * time.Millisecond
}

// Weights is one scoring preset over the four weighted criteria.
type Weights struct {
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
	Services float64 `json:"services"`
	Speed    float64 `json:"speed"`
}

// Sum adds the four weights.
func (w Weights) Sum() float64 {
	return w.Price + w.Rating + w.Services + w.Speed
}

// EngineConfig is the data that drives pricing, limiting and scoring.
type EngineConfig struct {
	Providers            []entities.MovingProvider     `json:"providers"`
	RateLimits           map[string]RateLimit          `json:"rateLimits"`
	WeightPresets        map[entities.MoveType]Weights `json:"weightPresets"`
	BasePrices           map[entities.HomeSize]int     `json:"basePrices"`
	ServiceSurcharges    map[string]ServiceSurcharge   `json:"serviceSurcharges"`
	SpecialItemSurcharge map[string]int                `json:"specialItemSurcharges"`
}

// DefaultEngineConfig returns the built-in tables.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Providers: defaultProviders(),
		RateLimits: map[string]RateLimit{
			"thrifty-haulers":      {RequestLimit: 20, WindowDurationMs: 60_000},
			"reliable-relocations": {RequestLimit: 15, WindowDurationMs: 60_000},
			"premier-moving-group": {RequestLimit: 10, WindowDurationMs: 60_000},
			"white-glove-movers":   {RequestLimit: 5, WindowDurationMs: 60_000},
			"national-van-lines":   {RequestLimit: 12, WindowDurationMs: 60_000},
		},
		WeightPresets: map[entities.MoveType]Weights{
			entities.MoveTypeBudget:   {Price: 0.5, Rating: 0.2, Services: 0.15, Speed: 0.15},
			entities.MoveTypePremium:  {Price: 0.1, Rating: 0.4, Services: 0.3, Speed: 0.2},
			entities.MoveTypeBalanced: {Price: 0.3, Rating: 0.3, Services: 0.2, Speed: 0.2},
			entities.MoveTypeUrgent:   {Price: 0.2, Rating: 0.2, Services: 0.15, Speed: 0.45},
		},
		BasePrices: map[entities.HomeSize]int{
			entities.HomeSizeStudio:   800,
			entities.HomeSizeOneBed:   1200,
			entities.HomeSizeTwoBed:   1800,
			entities.HomeSizeThreeBed: 2500,
			entities.HomeSizeFourBed:  3200,
			entities.HomeSizeFiveBed:  4000,
		},
		ServiceSurcharges: map[string]ServiceSurcharge{
			"packing":       {Kind: SurchargePercent, Amount: 0.30},
			"unpacking":     {Kind: SurchargePercent, Amount: 0.20},
			"storage":       {Kind: SurchargeFlat, Amount: 200},
			"piano":         {Kind: SurchargeFlat, Amount: 300},
			"appliances":    {Kind: SurchargeFlat, Amount: 150},
			"fragile-items": {Kind: SurchargeFlat, Amount: 100},
		},
		SpecialItemSurcharge: map[string]int{
			"piano":      400,
			"pool-table": 300,
			"hot-tub":    500,
			"artwork":    200,
		},
	}
}

func defaultProviders() []entities.MovingProvider {
	return []entities.MovingProvider{
		{
			ID:                "thrifty-haulers",
			DisplayName:       "Thrifty Haulers",
			PriceMultiplier:   0.85,
			Rating:            3.9,
			ReviewCount:       412,
			EstimatedDuration: "3-5 days",
			Services:          []string{"Loading & Unloading", "Basic Transport"},
			SpecialOffers:     []string{"10% off weekday moves"},
			Insurance: entities.InsuranceOptions{
				Basic: entities.InsuranceTier{Coverage: "$0.60 per lb per item", Cost: 0},
				Full:  entities.InsuranceTier{Coverage: "Full replacement value", Cost: 149},
			},
			Contact:     entities.Contact{Phone: "1-800-555-0101", Website: "https://thriftyhaulers.example.com"},
			FailureRate: 0.05,
		},
		{
			ID:                "reliable-relocations",
			DisplayName:       "Reliable Relocations",
			PriceMultiplier:   0.90,
			Rating:            4.2,
			ReviewCount:       958,
			EstimatedDuration: "2-4 days",
			Services:          []string{"Packing", "Loading & Unloading", "Transport", "Basic Insurance"},
			SpecialOffers:     []string{"Free wardrobe boxes"},
			Insurance: entities.InsuranceOptions{
				Basic: entities.InsuranceTier{Coverage: "$0.60 per lb per item", Cost: 0},
				Full:  entities.InsuranceTier{Coverage: "Full replacement value", Cost: 179},
			},
			Contact:     entities.Contact{Phone: "1-800-555-0102", Website: "https://reliablerelocations.example.com"},
			FailureRate: 0.05,
		},
		{
			ID:                "premier-moving-group",
			DisplayName:       "Premier Moving Group",
			PriceMultiplier:   1.15,
			Rating:            4.7,
			ReviewCount:       1320,
			EstimatedDuration: "1-2 days",
			Services:          []string{"Full Packing", "Unpacking", "Furniture Assembly", "Storage", "Full Value Protection"},
			SpecialOffers:     []string{"Free 30-day storage", "Price match guarantee"},
			Insurance: entities.InsuranceOptions{
				Basic: entities.InsuranceTier{Coverage: "$0.60 per lb per item", Cost: 0},
				Full:  entities.InsuranceTier{Coverage: "Full replacement value", Cost: 229},
			},
			Contact:     entities.Contact{Phone: "1-800-555-0103", Website: "https://premiermoving.example.com"},
			FailureRate: 0.05,
		},
		{
			ID:                "white-glove-movers",
			DisplayName:       "White Glove Movers",
			PriceMultiplier:   1.20,
			Rating:            4.9,
			ReviewCount:       640,
			EstimatedDuration: "1-2 days",
			Services:          []string{"White Glove Packing", "Fragile Item Crating", "Piano Moving", "Climate-Controlled Storage", "Full Insurance"},
			SpecialOffers:     []string{"Complimentary crating for artwork"},
			Insurance: entities.InsuranceOptions{
				Basic: entities.InsuranceTier{Coverage: "$0.60 per lb per item", Cost: 0},
				Full:  entities.InsuranceTier{Coverage: "Full replacement value", Cost: 299},
			},
			Contact:     entities.Contact{Phone: "1-800-555-0104", Website: "https://whiteglovemovers.example.com"},
			FailureRate: 0.05,
		},
		{
			ID:                "national-van-lines",
			DisplayName:       "National Van Lines",
			PriceMultiplier:   1.10,
			Rating:            4.4,
			ReviewCount:       2875,
			EstimatedDuration: "2-3 days",
			Services:          []string{"Packing", "Long Distance Transport", "Storage", "Valuation Coverage"},
			SpecialOffers:     []string{"Guaranteed delivery window"},
			Insurance: entities.InsuranceOptions{
				Basic: entities.InsuranceTier{Coverage: "$0.60 per lb per item", Cost: 0},
				Full:  entities.InsuranceTier{Coverage: "Full replacement value", Cost: 199},
			},
			Contact:     entities.Contact{Phone: "1-800-555-0105", Website: "https://nationalvanlines.example.com"},
			FailureRate: 0.05,
		},
	}
}

// LoadEngineConfig reads a JSON engine config. Sections present in the file
// replace the defaults wholesale; absent sections keep the built-in tables.
// An empty path returns the defaults.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config: %w", err)
	}

	var fileCfg EngineConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}

	if len(fileCfg.Providers) > 0 {
		cfg.Providers = fileCfg.Providers
	}
	if len(fileCfg.RateLimits) > 0 {
		cfg.RateLimits = fileCfg.RateLimits
	}
	if len(fileCfg.WeightPresets) > 0 {
		cfg.WeightPresets = fileCfg.WeightPresets
	}
	if len(fileCfg.BasePrices) > 0 {
		prices, err := normalizeBasePrices(fileCfg.BasePrices)
		if err != nil {
			return nil, err
		}
		cfg.BasePrices = prices
	}
	if len(fileCfg.ServiceSurcharges) > 0 {
		cfg.ServiceSurcharges = fileCfg.ServiceSurcharges
	}
	if len(fileCfg.SpecialItemSurcharge) > 0 {
		cfg.SpecialItemSurcharge = fileCfg.SpecialItemSurcharge
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the engine relies on.
// normalizeBasePrices rekeys the table by canonical home size so file entries
// like "2br" or "2 Bedroom" match normalized requests.
func normalizeBasePrices(raw map[entities.HomeSize]int) (map[entities.HomeSize]int, error) {
	out := make(map[entities.HomeSize]int, len(raw))
	from := make(map[entities.HomeSize]entities.HomeSize, len(raw))
	for key, price := range raw {
		size := entities.ParseHomeSize(string(key))
		if size == "" {
			return nil, fmt.Errorf("engine config: empty base price key")
		}
		if prev, dup := from[size]; dup {
			return nil, fmt.Errorf("engine config: base price keys %q and %q both map to %s", prev, key, size)
		}
		from[size] = key
		out[size] = price
	}
	return out, nil
}

func (c *EngineConfig) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("engine config: at least one provider is required")
	}
	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("engine config: provider with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("engine config: duplicate provider %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.PriceMultiplier <= 0 {
			return fmt.Errorf("engine config: provider %q multiplier must be positive", p.ID)
		}
		if p.Rating < 0 || p.Rating > 5 {
			return fmt.Errorf("engine config: provider %q rating must be within 0-5", p.ID)
		}
		if p.FailureRate < 0 || p.FailureRate > 1 {
			return fmt.Errorf("engine config: provider %q failure rate must be within 0-1", p.ID)
		}
	}

	for _, moveType := range entities.ValidMoveTypes() {
		w, ok := c.WeightPresets[moveType]
		if !ok {
			return fmt.Errorf("engine config: missing weight preset %q", moveType)
		}
		if math.Abs(w.Sum()-1.0) > 1e-6 {
			return fmt.Errorf("engine config: weight preset %q sums to %.4f, want 1.0", moveType, w.Sum())
		}
	}

	for id, rl := range c.RateLimits {
		if rl.RequestLimit < 1 || rl.WindowDurationMs < 1 {
			return fmt.Errorf("engine config: rate limit for %q must be positive", id)
		}
	}

	for name, s := range c.ServiceSurcharges {
		if s.Kind != SurchargePercent && s.Kind != SurchargeFlat {
			return fmt.Errorf("engine config: surcharge %q has unknown kind %q", name, s.Kind)
		}
	}
	return nil
}

// ActiveProviders returns registry entries that should be queried.
func (c *EngineConfig) ActiveProviders() []entities.MovingProvider {
	active := make([]entities.MovingProvider, 0, len(c.Providers))
	for _, p := range c.Providers {
		if !p.Disabled {
			active = append(active, p)
		}
	}
	return active
}

// BasePriceFor looks up the base price for a size.
func (c *EngineConfig) BasePriceFor(size entities.HomeSize) int {
	if price, ok := c.BasePrices[size]; ok {
		return price
	}
	return DefaultBasePrice
}

// SpecialItemPrice looks up the fixed charge for a special item.
func (c *EngineConfig) SpecialItemPrice(item string) int {
	if price, ok := c.SpecialItemSurcharge[item]; ok {
		return price
	}
	return DefaultSpecialItemSurcharge
}

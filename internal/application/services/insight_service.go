package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

const (
	lowPriceRatio        = 1.2
	lowRatingThreshold   = 4.0
	highVarianceFraction = 0.5
	marketMinQuotes      = 3
)

var insuranceTerms = []string{"insurance", "protection", "coverage", "valuation"}

// InsightService derives market analysis, tips and risk flags from scored
// quotes.
type InsightService struct{}

// NewInsightService creates a new insight service
func NewInsightService() *InsightService {
	return &InsightService{}
}

// Generate builds the insight set. Every list is non-nil.
func (s *InsightService) Generate(scored []entities.ScoredQuote, profile entities.UserProfile, category entities.MoveCategory) entities.InsightSet {
	return entities.InsightSet{
		MarketAnalysis:          marketAnalysis(scored),
		PersonalizedTips:        personalizedTips(profile),
		CostSavingOpportunities: costSavings(profile),
		RiskFactors:             riskFactors(scored, category),
		Timeline:                timelineFor(profile),
	}
}

func marketAnalysis(scored []entities.ScoredQuote) []string {
	out := []string{}
	if len(scored) < marketMinQuotes {
		return out
	}

	minPrice, maxPrice, sum := scored[0].TotalPrice, scored[0].TotalPrice, 0
	for _, q := range scored {
		sum += q.TotalPrice
		if q.TotalPrice < minPrice {
			minPrice = q.TotalPrice
		}
		if q.TotalPrice > maxPrice {
			maxPrice = q.TotalPrice
		}
	}
	avg := float64(sum) / float64(len(scored))

	out = append(out,
		fmt.Sprintf("Average quote is %s across %d movers.", formatDollars(int(avg+0.5)), len(scored)),
		fmt.Sprintf("Quotes range from %s to %s.", formatDollars(minPrice), formatDollars(maxPrice)),
	)
	if float64(maxPrice-minPrice) > highVarianceFraction*avg {
		out = append(out, "Prices vary widely between movers, so compare what each quote includes.")
	}
	return out
}

// IsUnusuallyLow reports whether all[idx] undercuts every other quote by
// more than the low-price ratio. Quotes are compared by position since
// caller-supplied quotes may carry no id.
func IsUnusuallyLow(idx int, all []entities.ScoredQuote) bool {
	if idx < 0 || idx >= len(all) {
		return false
	}
	q := all[idx]
	cheapestOther := -1
	for i, other := range all {
		if i == idx {
			continue
		}
		if cheapestOther < 0 || other.TotalPrice < cheapestOther {
			cheapestOther = other.TotalPrice
		}
	}
	if cheapestOther < 0 {
		return false
	}
	return float64(cheapestOther) > lowPriceRatio*float64(q.TotalPrice)
}

func riskFactors(scored []entities.ScoredQuote, category entities.MoveCategory) []string {
	out := []string{}
	for _, q := range scored {
		if q.Rating < lowRatingThreshold {
			out = append(out, fmt.Sprintf("%s has a below-average rating (%.1f/5); read recent reviews before booking.", q.CompanyName, q.Rating))
		}
	}
	for i, q := range scored {
		if IsUnusuallyLow(i, scored) {
			out = append(out, fmt.Sprintf("%s is unusually low at %s; verify what the quote includes.", q.CompanyName, formatDollars(q.TotalPrice)))
		}
	}
	for _, q := range scored {
		if !listsInsurance(q.ServicesOffered) {
			out = append(out, fmt.Sprintf("%s does not list insurance or valuation coverage.", q.CompanyName))
		}
	}
	if category == entities.MoveCategoryLongDistance {
		out = append(out, "Long-distance moves carry more transit risk; confirm the delivery window and valuation coverage in writing.")
	}
	return out
}

func listsInsurance(services []string) bool {
	for _, svc := range services {
		lower := strings.ToLower(svc)
		for _, term := range insuranceTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

func costSavings(profile entities.UserProfile) []string {
	out := []string{}
	if profile.TimelineUrgency == entities.TimelineFlexible {
		out = append(out,
			"Your flexible dates let you pick a mid-week or mid-month slot, which is usually cheaper.",
			"Ask movers about off-peak discounts outside the summer season.",
		)
	}
	if profile.HasNeed(entities.NeedPackingService) {
		out = append(out, "Packing non-fragile items yourself avoids much of the packing surcharge.")
	}
	return out
}

func personalizedTips(profile entities.UserProfile) []string {
	out := []string{}
	if profile.ExperienceLevel == entities.ExperienceFirstTime {
		out = append(out, "As a first-time mover, book at least four weeks ahead and ask each mover for a written inventory.")
	}
	for _, need := range profile.Needs() {
		switch need {
		case entities.NeedPiano:
			out = append(out, "Confirm the mover has piano boards and crew experience with pianos.")
		case entities.NeedFragileItems:
			out = append(out, "Ask about custom crating and full-value protection for fragile items.")
		case entities.NeedPets:
			out = append(out, "Plan pet transport separately; movers do not carry animals.")
		case entities.NeedStorage:
			out = append(out, "Check whether storage is climate-controlled and how it is billed.")
		case entities.NeedPackingService:
			out = append(out, "Get packing materials listed on the quote so there are no surprise charges.")
		}
	}
	if profile.FamilySize == entities.FamilyLarge {
		out = append(out, "Larger households benefit from an in-home or video walkthrough before the final quote.")
	}
	if profile.IsUrgent() {
		out = append(out, "Book today; short-notice availability disappears quickly.")
	}
	return out
}

func timelineFor(profile entities.UserProfile) []string {
	switch {
	case profile.IsUrgent():
		return []string{
			"Today: confirm your top choice and lock in the date.",
			"Next 2-3 days: pack essentials and transfer utilities.",
			"Moving day: keep documents and valuables with you.",
		}
	case profile.TimelineUrgency == entities.TimelineFlexible:
		return []string{
			"Now: compare quotes and watch for off-peak offers.",
			"4-6 weeks out: book your mover.",
			"1 week out: confirm details and finish packing.",
		}
	default:
		return []string{
			"Now: shortlist two or three movers.",
			"3-4 weeks out: book and schedule the move.",
			"1 week out: confirm the inventory and finish packing.",
		}
	}
}

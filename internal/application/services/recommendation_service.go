package services

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

const (
	budgetMinRating  = 4.0
	premiumMinRating = 4.5
	maxAlternatives  = 3
)

// RecommendationService picks a top choice, budget and premium options and
// alternatives from scored quotes.
type RecommendationService struct{}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService() *RecommendationService {
	return &RecommendationService{}
}

// Compose builds the recommendation from quotes already sorted by descending
// score. explicitPreference raises confidence when the user stated a
// budget, premium or urgency preference.
func (s *RecommendationService) Compose(scored []entities.ScoredQuote, explicitPreference bool) entities.RecommendationResult {
	result := entities.RecommendationResult{
		Alternatives: []entities.ScoredQuote{},
		Reasoning:    []string{},
	}
	if len(scored) == 0 {
		return result
	}

	top := scored[0]
	result.TopChoice = &top

	budgetIdx := -1
	for i, q := range scored {
		if q.Rating < budgetMinRating {
			continue
		}
		if budgetIdx < 0 || q.TotalPrice < scored[budgetIdx].TotalPrice {
			budgetIdx = i
		}
	}

	premiumIdx := -1
	for i, q := range scored {
		if premiumIdx < 0 || q.Rating > scored[premiumIdx].Rating {
			premiumIdx = i
		}
	}
	if scored[premiumIdx].Rating < premiumMinRating {
		premiumIdx = -1
	}

	if budgetIdx >= 0 {
		budget := scored[budgetIdx]
		result.BudgetOption = &budget
	}
	if premiumIdx >= 0 {
		premium := scored[premiumIdx]
		result.PremiumOption = &premium
	}

	for i := 1; i < len(scored) && len(result.Alternatives) < maxAlternatives; i++ {
		if i == budgetIdx || i == premiumIdx {
			continue
		}
		result.Alternatives = append(result.Alternatives, scored[i])
	}

	result.Reasoning = reasoningFor(top, result.BudgetOption, result.PremiumOption, budgetIdx == 0, premiumIdx == 0)
	result.Confidence = confidenceFor(len(scored), explicitPreference)
	return result
}

func reasoningFor(top entities.ScoredQuote, budget, premium *entities.ScoredQuote, topIsBudget, topIsPremium bool) []string {
	reasons := []string{
		fmt.Sprintf("%s is the top match at %s with a %.1f/5 rating, meeting %d%% of your priorities.",
			top.CompanyName, formatDollars(top.TotalPrice), top.Rating, top.Annotation.MatchPercent),
	}

	switch {
	case budget == nil:
		reasons = append(reasons, "No quote met the 4.0 rating bar for a budget pick.")
	case topIsBudget:
		reasons = append(reasons, fmt.Sprintf("%s is also the lowest-priced well-rated option.", top.CompanyName))
	default:
		reasons = append(reasons, fmt.Sprintf("For the best value, %s charges %s with a %.1f/5 rating.",
			budget.CompanyName, formatDollars(budget.TotalPrice), budget.Rating))
	}

	switch {
	case premium == nil:
	case topIsPremium:
		reasons = append(reasons, fmt.Sprintf("%s also has the highest rating among your quotes.", top.CompanyName))
	default:
		reasons = append(reasons, fmt.Sprintf("For premium service, %s is rated %.1f/5 at %s.",
			premium.CompanyName, premium.Rating, formatDollars(premium.TotalPrice)))
	}

	return reasons
}

func confidenceFor(quoteCount int, explicitPreference bool) float64 {
	confidence := 0.7
	switch {
	case quoteCount >= 5:
		confidence += 0.2
	case quoteCount >= 3:
		confidence += 0.1
	}
	if explicitPreference {
		confidence += 0.1
	}
	return math.Min(math.Round(confidence*100)/100, 1.0)
}

// formatDollars renders whole dollars with thousands separators.
func formatDollars(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + "$" + string(out)
}

package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/pkg/config"
)

var firstIntegerPattern = regexp.MustCompile(`\d+`)

// QuoteScoringService ranks quotes against a user profile with the weight
// preset of the profile's move type.
type QuoteScoringService struct {
	presets map[entities.MoveType]config.Weights
}

// NewQuoteScoringService creates a scoring service over the configured presets
func NewQuoteScoringService(cfg *config.EngineConfig) *QuoteScoringService {
	return &QuoteScoringService{presets: cfg.WeightPresets}
}

// WeightsFor returns the preset for a move type, defaulting to balanced.
func (s *QuoteScoringService) WeightsFor(moveType entities.MoveType) config.Weights {
	if w, ok := s.presets[moveType]; ok {
		return w
	}
	return s.presets[entities.MoveTypeBalanced]
}

// Score computes per-criterion and total scores and returns the quotes sorted
// by descending total. Equal totals keep their input order.
func (s *QuoteScoringService) Score(quotes []entities.Quote, profile entities.UserProfile) []entities.ScoredQuote {
	if len(quotes) == 0 {
		return nil
	}

	minPrice, maxPrice := quotes[0].TotalPrice, quotes[0].TotalPrice
	for _, q := range quotes[1:] {
		if q.TotalPrice < minPrice {
			minPrice = q.TotalPrice
		}
		if q.TotalPrice > maxPrice {
			maxPrice = q.TotalPrice
		}
	}

	weights := s.WeightsFor(profile.MoveType)
	urgent := profile.IsUrgent()

	scored := make([]entities.ScoredQuote, len(quotes))
	for i, q := range quotes {
		scores := entities.CriterionScores{
			Price:        priceScore(q.TotalPrice, minPrice, maxPrice),
			Rating:       ratingScore(q.Rating),
			Services:     servicesScore(q.ServicesOffered, profile),
			Speed:        speedScore(q.EstimatedDuration, urgent),
			Availability: availabilityScore(q.Availability, urgent),
		}

		// Availability is reported but not weighted.
		total := scores.Price*weights.Price +
			scores.Rating*weights.Rating +
			scores.Services*weights.Services +
			scores.Speed*weights.Speed
		total = math.Round(total*100) / 100

		scored[i] = entities.ScoredQuote{
			Quote:      q,
			Scores:     scores,
			TotalScore: total,
			Annotation: annotate(q, scores, weights, total),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TotalScore > scored[j].TotalScore
	})

	return scored
}

func priceScore(price, minPrice, maxPrice int) float64 {
	if maxPrice == minPrice {
		return 1.0
	}
	return 1 - float64(price-minPrice)/float64(maxPrice-minPrice)
}

func ratingScore(rating float64) float64 {
	return clamp01(rating / 5)
}

func servicesScore(services []string, profile entities.UserProfile) float64 {
	score := 0.5
	for _, need := range profile.Needs() {
		term := need.MatchTerm()
		for _, svc := range services {
			if strings.Contains(strings.ToLower(svc), term) {
				score += 0.2
				break
			}
		}
	}
	if len(services) >= 3 {
		score += 0.1
	}
	return math.Min(score, 1.0)
}

func speedScore(duration string, urgent bool) float64 {
	days := -1
	if m := firstIntegerPattern.FindString(duration); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			days = n
		}
	}

	if urgent {
		switch {
		case days < 0:
			return 0.3
		case days <= 2:
			return 1.0
		case days <= 5:
			return 0.7
		default:
			return 0.3
		}
	}
	switch {
	case days < 0:
		return 0.5
	case days <= 3:
		return 0.9
	case days <= 7:
		return 0.7
	default:
		return 0.5
	}
}

func availabilityScore(tier entities.AvailabilityTier, urgent bool) float64 {
	switch strings.ToLower(string(tier)) {
	case string(entities.AvailabilityExcellent), "immediate":
		return 1.0
	case string(entities.AvailabilityGood):
		if urgent {
			return 0.6
		}
		return 0.8
	case string(entities.AvailabilityLimited):
		if urgent {
			return 0.2
		}
		return 0.5
	default:
		if urgent {
			return 0.3
		}
		return 0.5
	}
}

func annotate(q entities.Quote, scores entities.CriterionScores, weights config.Weights, total float64) entities.Annotation {
	a := entities.Annotation{
		Strengths:      []string{},
		Considerations: []string{},
		MatchPercent:   int(math.Round(total * 100)),
		BestFor:        bestFor(scores, weights),
	}

	if scores.Price >= 0.8 {
		a.Strengths = append(a.Strengths, "Competitive pricing")
	}
	if q.Rating >= 4.5 {
		a.Strengths = append(a.Strengths, fmt.Sprintf("Highly rated (%.1f/5 from %d reviews)", q.Rating, q.ReviewCount))
	}
	if scores.Services >= 0.8 {
		a.Strengths = append(a.Strengths, "Covers your special requirements")
	}
	if scores.Speed >= 0.9 {
		a.Strengths = append(a.Strengths, fmt.Sprintf("Fast turnaround (%s)", q.EstimatedDuration))
	}

	if q.Rating < 4.0 {
		a.Considerations = append(a.Considerations, fmt.Sprintf("Below-average rating (%.1f/5)", q.Rating))
	}
	if scores.Price < 0.3 {
		a.Considerations = append(a.Considerations, "Priced above most other quotes")
	}
	if q.Availability == entities.AvailabilityLimited {
		a.Considerations = append(a.Considerations, "Limited availability for your move date")
	}

	return a
}

// bestFor labels the criterion contributing most to the weighted total.
func bestFor(scores entities.CriterionScores, w config.Weights) string {
	contributions := []struct {
		label string
		value float64
	}{
		{label: "Budget-conscious moves", value: scores.Price * w.Price},
		{label: "Quality-focused moves", value: scores.Rating * w.Rating},
		{label: "Moves with special requirements", value: scores.Services * w.Services},
		{label: "Tight timelines", value: scores.Speed * w.Speed},
	}
	best := contributions[0]
	for _, c := range contributions[1:] {
		if c.value > best.value {
			best = c
		}
	}
	return best.label
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

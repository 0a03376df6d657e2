package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/pkg/config"
)

func newScorer() *services.QuoteScoringService {
	return services.NewQuoteScoringService(config.DefaultEngineConfig())
}

func scoresByProvider(scored []entities.ScoredQuote) map[string]entities.ScoredQuote {
	out := make(map[string]entities.ScoredQuote, len(scored))
	for _, s := range scored {
		out[s.ProviderID] = s
	}
	return out
}

func TestQuoteScoringService_PriceNormalization(t *testing.T) {
	scorer := newScorer()
	quotes := []entities.Quote{*quoteOf("a", 1000, 4), *quoteOf("b", 1500, 4), *quoteOf("c", 2000, 4)}

	byID := scoresByProvider(scorer.Score(quotes, entities.NewUserProfile()))

	assert.InDelta(t, 1.0, byID["a"].Scores.Price, 1e-9)
	assert.InDelta(t, 0.5, byID["b"].Scores.Price, 1e-9)
	assert.InDelta(t, 0.0, byID["c"].Scores.Price, 1e-9)

	equal := scorer.Score([]entities.Quote{*quoteOf("a", 1200, 4), *quoteOf("b", 1200, 4)}, entities.NewUserProfile())
	for _, s := range equal {
		assert.Equal(t, 1.0, s.Scores.Price)
	}
}

func TestQuoteScoringService_WeightedTotal(t *testing.T) {
	scorer := newScorer()
	q := *quoteOf("solo", 1800, 4.0)
	q.ServicesOffered = []string{"Loading", "Transport"}
	q.EstimatedDuration = "2-3 days"

	scored := scorer.Score([]entities.Quote{q}, entities.NewUserProfile())
	require.Len(t, scored, 1)

	s := scored[0]
	assert.InDelta(t, 0.8, s.Scores.Rating, 1e-9)
	assert.InDelta(t, 0.5, s.Scores.Services, 1e-9)
	assert.InDelta(t, 0.9, s.Scores.Speed, 1e-9)
	assert.InDelta(t, 0.82, s.TotalScore, 1e-9)
	assert.Equal(t, 82, s.Annotation.MatchPercent)
}

func TestQuoteScoringService_SortedDescendingAndStable(t *testing.T) {
	scorer := newScorer()
	quotes := []entities.Quote{
		*quoteOf("pricey", 3000, 3.8),
		*quoteOf("twin-1", 2000, 4.5),
		*quoteOf("twin-2", 2000, 4.5),
		*quoteOf("cheap", 1500, 4.4),
	}

	scored := scorer.Score(quotes, entities.NewUserProfile())
	require.Len(t, scored, 4)

	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].TotalScore, scored[i].TotalScore)
	}

	var twins []string
	for _, s := range scored {
		if s.ProviderID == "twin-1" || s.ProviderID == "twin-2" {
			twins = append(twins, s.ProviderID)
		}
	}
	assert.Equal(t, []string{"twin-1", "twin-2"}, twins)
	assert.Equal(t, "pricey", scored[3].ProviderID)
}

func TestQuoteScoringService_ServicesScore(t *testing.T) {
	scorer := newScorer()
	profile := services.NewProfileAnalyzer().Analyze("I have a piano and fragile artwork")

	matched := *quoteOf("matched", 2000, 4.5)
	matched.ServicesOffered = []string{"Piano Moving", "Fragile Item Crating", "Storage"}
	plain := *quoteOf("plain", 2000, 4.5)
	plain.ServicesOffered = []string{"Basic Transport"}
	oneMatch := *quoteOf("one", 2000, 4.5)
	oneMatch.ServicesOffered = []string{"PIANO specialists"}

	byID := scoresByProvider(scorer.Score([]entities.Quote{matched, plain, oneMatch}, profile))

	assert.InDelta(t, 1.0, byID["matched"].Scores.Services, 1e-9)
	assert.InDelta(t, 0.5, byID["plain"].Scores.Services, 1e-9)
	assert.InDelta(t, 0.7, byID["one"].Scores.Services, 1e-9)
	assert.Contains(t, byID["matched"].Annotation.Strengths, "Covers your special requirements")
}

func TestQuoteScoringService_SpeedBands(t *testing.T) {
	scorer := newScorer()
	urgentProfile := services.NewProfileAnalyzer().Analyze("asap")
	normalProfile := entities.NewUserProfile()

	tests := []struct {
		duration string
		urgent   float64
		normal   float64
	}{
		{duration: "1-2 days", urgent: 1.0, normal: 0.9},
		{duration: "3-5 days", urgent: 0.7, normal: 0.9},
		{duration: "6 days", urgent: 0.3, normal: 0.7},
		{duration: "7-10 days", urgent: 0.3, normal: 0.7},
		{duration: "10-14 days", urgent: 0.3, normal: 0.5},
		{duration: "depends on season", urgent: 0.3, normal: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			q := *quoteOf("p", 2000, 4)
			q.EstimatedDuration = tt.duration

			assert.InDelta(t, tt.urgent, scorer.Score([]entities.Quote{q}, urgentProfile)[0].Scores.Speed, 1e-9)
			assert.InDelta(t, tt.normal, scorer.Score([]entities.Quote{q}, normalProfile)[0].Scores.Speed, 1e-9)
		})
	}
}

func TestQuoteScoringService_AvailabilityIsInformational(t *testing.T) {
	scorer := newScorer()
	profile := services.NewProfileAnalyzer().Analyze("urgent")

	excellent := *quoteOf("excellent", 2000, 4.2)
	excellent.Availability = entities.AvailabilityExcellent
	limited := *quoteOf("limited", 2000, 4.2)
	limited.Availability = entities.AvailabilityLimited
	unknown := *quoteOf("unknown", 2000, 4.2)
	unknown.Availability = ""

	byID := scoresByProvider(scorer.Score([]entities.Quote{excellent, limited, unknown}, profile))

	assert.Equal(t, 1.0, byID["excellent"].Scores.Availability)
	assert.Equal(t, 0.2, byID["limited"].Scores.Availability)
	assert.Equal(t, 0.3, byID["unknown"].Scores.Availability)
	assert.Equal(t, byID["excellent"].TotalScore, byID["limited"].TotalScore)
	assert.Contains(t, byID["limited"].Annotation.Considerations, "Limited availability for your move date")
}

func TestQuoteScoringService_PresetChangesRanking(t *testing.T) {
	scorer := newScorer()
	cheap := *quoteOf("cheap", 1500, 3.9)
	cheap.EstimatedDuration = "3-5 days"
	luxe := *quoteOf("luxe", 3000, 4.9)
	luxe.EstimatedDuration = "1-2 days"
	luxe.ServicesOffered = []string{"Full Packing", "Unpacking", "Storage"}

	analyzer := services.NewProfileAnalyzer()
	budget := scorer.Score([]entities.Quote{cheap, luxe}, analyzer.Analyze("cheapest possible please"))
	premium := scorer.Score([]entities.Quote{cheap, luxe}, analyzer.Analyze("luxury, white glove"))

	assert.Equal(t, "cheap", budget[0].ProviderID)
	assert.Equal(t, "Budget-conscious moves", budget[0].Annotation.BestFor)
	assert.Equal(t, "luxe", premium[0].ProviderID)
	assert.Contains(t, budget[0].Annotation.Considerations, "Below-average rating (3.9/5)")
}

func TestQuoteScoringService_Empty(t *testing.T) {
	assert.Empty(t, newScorer().Score(nil, entities.NewUserProfile()))
}

func TestQuoteScoringService_WeightsFor(t *testing.T) {
	scorer := newScorer()
	for _, moveType := range entities.ValidMoveTypes() {
		assert.InDelta(t, 1.0, scorer.WeightsFor(moveType).Sum(), 1e-6)
	}
	assert.Equal(t, scorer.WeightsFor(entities.MoveTypeBalanced), scorer.WeightsFor("unheard-of"))
}

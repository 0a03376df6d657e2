package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/domain/repositories"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

// RecommendationInput is one conversational turn. The zips are optional and
// only refine the move category used for insights.
type RecommendationInput struct {
	SessionID      string
	Text           string
	Quotes         []entities.Quote
	OriginZip      string
	DestinationZip string
}

// QuoteEngine is the entry point used by the HTTP API and the CLI.
type QuoteEngine struct {
	aggregator  QuoteAggregator
	analyzer    *ProfileAnalyzer
	scorer      *QuoteScoringService
	recommender *RecommendationService
	insights    *InsightService
	profiles    providers.ProfileStore
	registry    repositories.ProviderRepository
	limiter     providers.RateLimiter
	distance    providers.DistanceProvider
}

// EngineDeps groups the collaborators of a QuoteEngine.
type EngineDeps struct {
	Aggregator QuoteAggregator
	Scorer     *QuoteScoringService
	Profiles   providers.ProfileStore
	Registry   repositories.ProviderRepository
	Limiter    providers.RateLimiter
	Distance   providers.DistanceProvider
}

// NewQuoteEngine creates a new quote engine
func NewQuoteEngine(deps EngineDeps) *QuoteEngine {
	return &QuoteEngine{
		aggregator:  deps.Aggregator,
		analyzer:    NewProfileAnalyzer(),
		scorer:      deps.Scorer,
		recommender: NewRecommendationService(),
		insights:    NewInsightService(),
		profiles:    deps.Profiles,
		registry:    deps.Registry,
		limiter:     deps.Limiter,
		distance:    deps.Distance,
	}
}

// CalculateQuotes aggregates quotes for a move. Only validation errors are
// returned.
func (e *QuoteEngine) CalculateQuotes(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error) {
	return e.aggregator.Aggregate(ctx, req)
}

// GenerateRecommendations folds the message into the session profile, scores
// the quotes against it and composes recommendations and insights. A missing
// session id starts a new session.
func (e *QuoteEngine) GenerateRecommendations(ctx context.Context, in RecommendationInput) (*entities.RecommendationBundle, error) {
	ctx, span := observability.StartSpan(ctx, "QuoteEngine.GenerateRecommendations")
	defer span.End()

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	ctx = observability.WithSessionID(ctx, sessionID)
	logger := observability.LoggerFromContext(ctx)

	profile, found, err := e.profiles.Get(ctx, sessionID)
	if err != nil {
		logger.Warn().Err(err).Msg("Session store unavailable, starting from an empty profile")
		found = false
	}
	if !found {
		profile = entities.NewUserProfile()
	}

	// Confidence rewards a preference stated in this message, not one
	// remembered from earlier turns.
	statedNow := e.analyzer.Analyze(in.Text).ExplicitPreference
	profile = e.analyzer.Update(profile, in.Text)
	if err := e.profiles.Save(ctx, sessionID, profile); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist session profile")
	}

	category := e.categoryFor(ctx, in.OriginZip, in.DestinationZip)
	scored := e.scorer.Score(in.Quotes, profile)
	if scored == nil {
		scored = []entities.ScoredQuote{}
	}

	bundle := &entities.RecommendationBundle{
		SessionID:    sessionID,
		Intent:       e.analyzer.ClassifyIntent(in.Text),
		Profile:      profile,
		MoveCategory: category,
		Scored:       scored,
		Result:       e.recommender.Compose(scored, statedNow),
		Insights:     e.insights.Generate(scored, profile, category),
	}

	logger.Info().
		Str("intent", string(bundle.Intent)).
		Str("move_type", string(profile.MoveType)).
		Int("quotes", len(in.Quotes)).
		Float64("confidence", bundle.Result.Confidence).
		Msg("Recommendations generated")

	return bundle, nil
}

// ClassifyMessage tags a message and previews the profile it alone implies,
// without touching any session.
func (e *QuoteEngine) ClassifyMessage(text string) (entities.IntentTag, entities.UserProfile) {
	return e.analyzer.ClassifyIntent(text), e.analyzer.Analyze(text)
}

// EndSession drops the session's accumulated profile.
func (e *QuoteEngine) EndSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperrors.NewValidationError("sessionId is required")
	}
	return e.profiles.Delete(ctx, sessionID)
}

// Providers lists the providers that will be queried.
func (e *QuoteEngine) Providers(ctx context.Context) ([]entities.MovingProvider, error) {
	return e.registry.ListActive(ctx)
}

// RateLimitState snapshots a known provider's request window.
func (e *QuoteEngine) RateLimitState(ctx context.Context, providerID string) (entities.RateLimitState, error) {
	if _, err := e.registry.GetByID(ctx, providerID); err != nil {
		return entities.RateLimitState{}, err
	}
	return e.limiter.State(providerID), nil
}

func (e *QuoteEngine) categoryFor(ctx context.Context, originZip, destinationZip string) entities.MoveCategory {
	if originZip == "" || destinationZip == "" {
		return ""
	}
	miles, err := e.distance.DistanceMiles(ctx, originZip, destinationZip)
	if err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("Ignoring zips for move category")
		return ""
	}
	return entities.MoveCategoryForDistance(miles)
}

package evaluation

import "github.com/zatekoja/movequote/internal/domain/entities"

// ValidIntents returns the intent tags a golden utterance may be labelled with.
func ValidIntents() []entities.IntentTag {
	return []entities.IntentTag{
		entities.IntentQuoteRequest,
		entities.IntentRecommendation,
		entities.IntentPricing,
		entities.IntentUrgent,
		entities.IntentProviderInfo,
		entities.IntentGreeting,
		entities.IntentHelp,
		entities.IntentUnknown,
	}
}

func isValidIntent(tag entities.IntentTag) bool {
	for _, v := range ValidIntents() {
		if v == tag {
			return true
		}
	}
	return false
}

// ExpectedProfile lists the profile fields a golden utterance asserts. Empty
// fields are not checked.
type ExpectedProfile struct {
	MoveType        entities.MoveType        `json:"move_type,omitempty"`
	BudgetTier      entities.BudgetTier      `json:"budget_tier,omitempty"`
	TimelineUrgency entities.TimelineUrgency `json:"timeline_urgency,omitempty"`
	FamilySize      entities.FamilySize      `json:"family_size,omitempty"`
	HomeSize        entities.HomeSize        `json:"home_size,omitempty"`
	SpecialNeeds    []entities.SpecialNeed   `json:"special_needs,omitempty"`
}

// GoldenUtterance is a labelled chat message with its expected analysis.
type GoldenUtterance struct {
	ID         string             `json:"id"`
	Text       string             `json:"text"`
	Intent     entities.IntentTag `json:"intent"`
	Expected   ExpectedProfile    `json:"expected"`
	Difficulty string             `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the outcome for a single utterance.
type EvalResult struct {
	UtteranceID   string
	Text          string
	Intent        entities.IntentTag
	Predicted     entities.IntentTag
	IntentCorrect bool
	FieldsChecked int
	FieldsMatched int
	NeedsRecall   float64
	Mismatches    []string
}

// EvalSummary holds aggregate metrics across all golden utterances.
type EvalSummary struct {
	TotalUtterances int
	IntentAccuracy  float64
	FieldAccuracy   float64
	AvgNeedsRecall  float64
	ByIntent        map[entities.IntentTag]*IntentSummary
	Failures        []EvalResult
}

// IntentSummary holds metrics grouped by labelled intent.
type IntentSummary struct {
	Count    int
	Correct  int
	Accuracy float64
}

package entities

import "sort"

// MoveType selects the scoring weight preset.
type MoveType string

const (
	MoveTypeBudget   MoveType = "budget"
	MoveTypePremium  MoveType = "premium"
	MoveTypeBalanced MoveType = "balanced"
	MoveTypeUrgent   MoveType = "urgent"
)

// ValidMoveTypes returns every weight preset key.
func ValidMoveTypes() []MoveType {
	return []MoveType{MoveTypeBudget, MoveTypePremium, MoveTypeBalanced, MoveTypeUrgent}
}

// BudgetTier is the inferred spending level.
type BudgetTier string

const (
	BudgetLow    BudgetTier = "low"
	BudgetMedium BudgetTier = "medium"
	BudgetHigh   BudgetTier = "high"
)

// TimelineUrgency is how soon the user needs to move.
type TimelineUrgency string

const (
	TimelineUrgent   TimelineUrgency = "urgent"
	TimelineFlexible TimelineUrgency = "flexible"
	TimelineNormal   TimelineUrgency = "normal"
)

// FamilySize is the household size bucket.
type FamilySize string

const (
	FamilySmall  FamilySize = "small"
	FamilyMedium FamilySize = "medium"
	FamilyLarge  FamilySize = "large"
)

// ExperienceLevel distinguishes first-time movers.
type ExperienceLevel string

const (
	ExperienceFirstTime   ExperienceLevel = "first_time"
	ExperienceExperienced ExperienceLevel = "experienced"
)

// SpecialNeed is a service requirement inferred from conversation text.
type SpecialNeed string

const (
	NeedFragileItems   SpecialNeed = "fragile-items"
	NeedStorage        SpecialNeed = "storage"
	NeedPackingService SpecialNeed = "packing-service"
	NeedPiano          SpecialNeed = "piano"
	NeedPets           SpecialNeed = "pets"
)

// MatchTerm is the lower-case fragment looked for in a provider's service list.
func (n SpecialNeed) MatchTerm() string {
	switch n {
	case NeedFragileItems:
		return "fragile"
	case NeedPackingService:
		return "packing"
	case NeedPets:
		return "pet"
	default:
		return string(n)
	}
}

// UserProfile is the accumulated inference of a user's move preferences.
// Updates only add or overwrite fields with newer signals; nothing is cleared.
type UserProfile struct {
	MoveType           MoveType             `json:"moveType"`
	BudgetTier         BudgetTier           `json:"budgetTier"`
	TimelineUrgency    TimelineUrgency      `json:"timelineUrgency"`
	FamilySize         FamilySize           `json:"familySize"`
	SpecialNeeds       map[SpecialNeed]bool `json:"specialNeeds"`
	ExperienceLevel    ExperienceLevel      `json:"experienceLevel,omitempty"`
	HomeSizeGuess      HomeSize             `json:"homeSizeGuess,omitempty"`
	ExplicitPreference bool                 `json:"explicitPreference"`
	MessagesAnalyzed   int                  `json:"messagesAnalyzed"`
}

// NewUserProfile returns the profile of a conversation with no signals yet.
func NewUserProfile() UserProfile {
	return UserProfile{
		MoveType:        MoveTypeBalanced,
		BudgetTier:      BudgetMedium,
		TimelineUrgency: TimelineNormal,
		FamilySize:      FamilySmall,
		SpecialNeeds:    make(map[SpecialNeed]bool),
	}
}

// HasNeed reports whether a special need has been detected.
func (p UserProfile) HasNeed(need SpecialNeed) bool {
	return p.SpecialNeeds[need]
}

// IsUrgent reports whether speed-sensitive scoring applies. Only the
// timeline decides; MoveType picks the weight preset.
func (p UserProfile) IsUrgent() bool {
	return p.TimelineUrgency == TimelineUrgent
}

// Needs returns detected special needs in a stable order.
func (p UserProfile) Needs() []SpecialNeed {
	needs := make([]SpecialNeed, 0, len(p.SpecialNeeds))
	for need, ok := range p.SpecialNeeds {
		if ok {
			needs = append(needs, need)
		}
	}
	sort.Slice(needs, func(i, j int) bool { return needs[i] < needs[j] })
	return needs
}

// Clone returns a deep copy so callers can update without aliasing the map.
func (p UserProfile) Clone() UserProfile {
	out := p
	out.SpecialNeeds = make(map[SpecialNeed]bool, len(p.SpecialNeeds))
	for k, v := range p.SpecialNeeds {
		out.SpecialNeeds[k] = v
	}
	return out
}

// IntentTag is the single classification of one chat message.
type IntentTag string

const (
	IntentQuoteRequest   IntentTag = "quote_request"
	IntentRecommendation IntentTag = "recommendation"
	IntentPricing        IntentTag = "pricing"
	IntentUrgent         IntentTag = "urgent"
	IntentProviderInfo   IntentTag = "provider_info"
	IntentGreeting       IntentTag = "greeting"
	IntentHelp           IntentTag = "help"
	IntentUnknown        IntentTag = "unknown"
)

// ValidIntents returns all intent tags.
func ValidIntents() []IntentTag {
	return []IntentTag{
		IntentQuoteRequest, IntentRecommendation, IntentPricing, IntentUrgent,
		IntentProviderInfo, IntentGreeting, IntentHelp, IntentUnknown,
	}
}

// IsValid checks if the intent value is one of the defined constants.
func (i IntentTag) IsValid() bool {
	for _, v := range ValidIntents() {
		if v == i {
			return true
		}
	}
	return false
}

package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

// phrasePattern matches any of the terms as whole words, case-insensitively.
// Spaces inside a term match any run of whitespace.
func phrasePattern(terms ...string) *regexp.Regexp {
	alts := make([]string, len(terms))
	for i, term := range terms {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(term), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

var (
	budgetTerms   = phrasePattern("cheap", "cheapest", "budget", "affordable", "inexpensive", "low cost", "low-cost", "save money", "lowest")
	premiumTerms  = phrasePattern("premium", "luxury", "white glove", "white-glove", "high-end", "high end", "full service", "full-service", "top rated", "top-rated", "best")
	urgentTerms   = phrasePattern("urgent", "urgently", "asap", "quickly", "emergency", "next week", "tomorrow", "this week", "immediately", "rush", "soon")
	flexibleTerms = phrasePattern("flexible", "no rush", "whenever", "anytime", "any time", "sometime", "not in a hurry")

	largeFamilyTerms  = phrasePattern("large family", "big family", "lots of kids", "three kids", "four kids", "five kids")
	mediumFamilyTerms = phrasePattern("family", "kids", "children", "my partner", "my wife", "my husband", "my spouse", "couple", "roommate", "roommates")
	smallFamilyTerms  = phrasePattern("just me", "by myself", "myself", "single", "alone", "on my own")
	familyOfPattern   = regexp.MustCompile(`(?i)\bfamily\s+of\s+(\d+|two|three|four|five|six|seven|eight)\b`)

	firstTimeTerms   = phrasePattern("first time", "first-time", "first move", "never moved")
	experiencedTerms = phrasePattern("moved before", "experienced", "moved many times", "done this before", "moved a lot")

	studioPattern     = regexp.MustCompile(`(?i)\bstudio\b`)
	bedroomPattern    = regexp.MustCompile(`(?i)\b([1-5])\s*-?\s*(?:bed(?:room)?s?|br)\b`)
	wordBedPattern    = regexp.MustCompile(`(?i)\b(one|two|three|four|five)\s*-?\s*bed(?:room)?s?\b`)
	zipCodePattern    = regexp.MustCompile(`\b\d{5}\b`)
	quoteRequestTerms = phrasePattern("quote", "quotes", "estimate", "estimates", "moving from", "move from", "moving to", "relocate", "relocating", "need a move", "need movers", "plan a move", "planning a move")
	greetingPattern   = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|howdy|good\s+(?:morning|afternoon|evening))\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8,
}

var needPatterns = []struct {
	need    entities.SpecialNeed
	pattern *regexp.Regexp
}{
	{need: entities.NeedFragileItems, pattern: phrasePattern("fragile", "antique", "antiques", "artwork", "art", "glass", "glassware", "china", "heirloom", "heirlooms")},
	{need: entities.NeedStorage, pattern: phrasePattern("storage", "storage unit", "store my", "storing", "warehouse")},
	{need: entities.NeedPackingService, pattern: phrasePattern("packing", "packers", "pack", "boxes", "packing service")},
	{need: entities.NeedPiano, pattern: phrasePattern("piano", "grand piano", "upright piano")},
	{need: entities.NeedPets, pattern: phrasePattern("pet", "pets", "dog", "dogs", "cat", "cats")},
}

// intentRules is evaluated top to bottom; the first matching rule wins.
var intentRules = []struct {
	intent entities.IntentTag
	match  func(text string) bool
}{
	{
		intent: entities.IntentUrgent,
		match:  phrasePattern("urgent", "urgently", "asap", "emergency", "immediately", "right away", "today", "tomorrow").MatchString,
	},
	{
		intent: entities.IntentRecommendation,
		match:  phrasePattern("recommend", "recommendation", "recommendations", "suggest", "which company", "which mover", "which one", "best option", "should i choose", "should i pick", "compare").MatchString,
	},
	{
		intent: entities.IntentPricing,
		match:  phrasePattern("how much", "price", "prices", "pricing", "cost", "costs", "expensive", "cheap", "cheaper", "cheapest", "afford", "affordable", "budget", "rate", "rates").MatchString,
	},
	{
		intent: entities.IntentQuoteRequest,
		match: func(text string) bool {
			return zipCodePattern.MatchString(text) || quoteRequestTerms.MatchString(text)
		},
	},
	{
		intent: entities.IntentProviderInfo,
		match:  phrasePattern("company", "companies", "reviews", "review", "rating", "ratings", "insured", "insurance", "licensed", "contact", "phone number", "website").MatchString,
	},
	{
		intent: entities.IntentHelp,
		match:  phrasePattern("help", "how does this work", "what can you do", "how do i", "explain", "confused").MatchString,
	},
	{
		intent: entities.IntentGreeting,
		match:  greetingPattern.MatchString,
	},
}

// ProfileAnalyzer infers move preferences from free text with fixed keyword
// tables. It holds no state; profiles are passed in and returned.
type ProfileAnalyzer struct{}

// NewProfileAnalyzer creates a new profile analyzer
func NewProfileAnalyzer() *ProfileAnalyzer {
	return &ProfileAnalyzer{}
}

// Analyze builds a profile from one message.
func (a *ProfileAnalyzer) Analyze(text string) entities.UserProfile {
	return a.Update(entities.NewUserProfile(), text)
}

// Update folds a new message into an existing profile. Fields change only
// when the message carries a matching signal; nothing is cleared.
func (a *ProfileAnalyzer) Update(profile entities.UserProfile, text string) entities.UserProfile {
	out := profile.Clone()
	if out.SpecialNeeds == nil {
		out.SpecialNeeds = make(map[entities.SpecialNeed]bool)
	}
	out.MessagesAnalyzed++

	if strings.TrimSpace(text) == "" {
		return out
	}

	wantsBudget := budgetTerms.MatchString(text)
	wantsPremium := premiumTerms.MatchString(text)

	// "no rush" must not read as "rush".
	flexible := flexibleTerms.MatchString(text)
	urgent := urgentTerms.MatchString(flexibleTerms.ReplaceAllString(text, " "))

	switch {
	case wantsBudget:
		out.BudgetTier = entities.BudgetLow
	case wantsPremium:
		out.BudgetTier = entities.BudgetHigh
	}

	switch {
	case urgent:
		out.TimelineUrgency = entities.TimelineUrgent
	case flexible:
		out.TimelineUrgency = entities.TimelineFlexible
	}

	switch {
	case wantsBudget:
		out.MoveType = entities.MoveTypeBudget
	case wantsPremium:
		out.MoveType = entities.MoveTypePremium
	case urgent && (out.MoveType == entities.MoveTypeBalanced || out.MoveType == ""):
		out.MoveType = entities.MoveTypeUrgent
	case flexible && !urgent && out.MoveType == entities.MoveTypeUrgent:
		out.MoveType = entities.MoveTypeBalanced
	}

	if wantsBudget || wantsPremium || urgent {
		out.ExplicitPreference = true
	}

	if size, ok := detectFamilySize(text); ok {
		out.FamilySize = size
	}

	for _, np := range needPatterns {
		if np.pattern.MatchString(text) {
			out.SpecialNeeds[np.need] = true
		}
	}

	switch {
	case firstTimeTerms.MatchString(text):
		out.ExperienceLevel = entities.ExperienceFirstTime
	case experiencedTerms.MatchString(text):
		out.ExperienceLevel = entities.ExperienceExperienced
	}

	if size, ok := detectHomeSize(text); ok {
		out.HomeSizeGuess = size
	}

	return out
}

// ClassifyIntent tags a message with the first matching intent rule.
func (a *ProfileAnalyzer) ClassifyIntent(text string) entities.IntentTag {
	if strings.TrimSpace(text) == "" {
		return entities.IntentUnknown
	}
	for _, rule := range intentRules {
		if rule.match(text) {
			return rule.intent
		}
	}
	return entities.IntentUnknown
}

func detectFamilySize(text string) (entities.FamilySize, bool) {
	if m := familyOfPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			n = numberWords[strings.ToLower(m[1])]
		}
		switch {
		case n >= 5:
			return entities.FamilyLarge, true
		case n >= 3:
			return entities.FamilyMedium, true
		default:
			return entities.FamilySmall, true
		}
	}
	switch {
	case largeFamilyTerms.MatchString(text):
		return entities.FamilyLarge, true
	case mediumFamilyTerms.MatchString(text):
		return entities.FamilyMedium, true
	case smallFamilyTerms.MatchString(text):
		return entities.FamilySmall, true
	}
	return "", false
}

func detectHomeSize(text string) (entities.HomeSize, bool) {
	if m := bedroomPattern.FindStringSubmatch(text); m != nil {
		return entities.ParseHomeSize(m[1] + "br"), true
	}
	if m := wordBedPattern.FindStringSubmatch(text); m != nil {
		n := numberWords[strings.ToLower(m[1])]
		return entities.ParseHomeSize(strconv.Itoa(n) + "br"), true
	}
	if studioPattern.MatchString(text) {
		return entities.HomeSizeStudio, true
	}
	return "", false
}

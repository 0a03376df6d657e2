package entities

// CriterionScores holds the normalized per-criterion scores of a quote.
type CriterionScores struct {
	Price        float64 `json:"price"`
	Rating       float64 `json:"rating"`
	Services     float64 `json:"services"`
	Speed        float64 `json:"speed"`
	Availability float64 `json:"availability"`
}

// Annotation explains a scored quote to the user.
type Annotation struct {
	Strengths      []string `json:"strengths"`
	Considerations []string `json:"considerations"`
	MatchPercent   int      `json:"matchPercent"`
	BestFor        string   `json:"bestFor"`
}

// ScoredQuote is a quote with its scores against one profile.
type ScoredQuote struct {
	Quote
	Scores     CriterionScores `json:"scores"`
	TotalScore float64         `json:"totalScore"`
	Annotation Annotation      `json:"annotation"`
}

// RecommendationResult is the composed pick list.
type RecommendationResult struct {
	TopChoice     *ScoredQuote  `json:"topChoice,omitempty"`
	BudgetOption  *ScoredQuote  `json:"budgetOption,omitempty"`
	PremiumOption *ScoredQuote  `json:"premiumOption,omitempty"`
	Alternatives  []ScoredQuote `json:"alternatives"`
	Reasoning     []string      `json:"reasoning"`
	Confidence    float64       `json:"confidence"`
}

// InsightSet holds narrative insights derived from scored quotes.
type InsightSet struct {
	MarketAnalysis          []string `json:"marketAnalysis"`
	PersonalizedTips        []string `json:"personalizedTips"`
	CostSavingOpportunities []string `json:"costSavingOpportunities"`
	RiskFactors             []string `json:"riskFactors"`
	Timeline                []string `json:"timeline"`
}

// RecommendationBundle is everything produced for one conversational turn.
type RecommendationBundle struct {
	SessionID    string               `json:"sessionId"`
	Intent       IntentTag            `json:"intent"`
	Profile      UserProfile          `json:"profile"`
	MoveCategory MoveCategory         `json:"moveCategory,omitempty"`
	Scored       []ScoredQuote        `json:"scoredQuotes"`
	Result       RecommendationResult `json:"recommendation"`
	Insights     InsightSet           `json:"insights"`
}

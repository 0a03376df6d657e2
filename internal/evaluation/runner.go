package evaluation

import (
	"fmt"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

// Classifier is the message analysis under evaluation.
type Classifier interface {
	ClassifyIntent(text string) entities.IntentTag
	Analyze(text string) entities.UserProfile
}

// Runner runs evaluation across a set of golden utterances.
type Runner struct {
	classifier Classifier
}

func NewRunner(classifier Classifier) *Runner {
	return &Runner{classifier: classifier}
}

// Run scores every utterance independently; each one is analyzed as the
// first message of a fresh conversation.
func (r *Runner) Run(utterances []GoldenUtterance) *EvalSummary {
	summary := &EvalSummary{
		TotalUtterances: len(utterances),
		ByIntent:        make(map[entities.IntentTag]*IntentSummary),
	}

	var intentCorrect, fieldsChecked, fieldsMatched int
	for _, u := range utterances {
		result := r.evaluate(u)

		if result.IntentCorrect {
			intentCorrect++
		}
		fieldsChecked += result.FieldsChecked
		fieldsMatched += result.FieldsMatched
		summary.AvgNeedsRecall += result.NeedsRecall

		is, ok := summary.ByIntent[u.Intent]
		if !ok {
			is = &IntentSummary{}
			summary.ByIntent[u.Intent] = is
		}
		is.Count++
		if result.IntentCorrect {
			is.Correct++
		}

		if !result.IntentCorrect || len(result.Mismatches) > 0 {
			summary.Failures = append(summary.Failures, result)
		}
	}

	summary.IntentAccuracy = Accuracy(intentCorrect, summary.TotalUtterances)
	summary.FieldAccuracy = Accuracy(fieldsMatched, fieldsChecked)
	if summary.TotalUtterances > 0 {
		summary.AvgNeedsRecall /= float64(summary.TotalUtterances)
	}
	for _, is := range summary.ByIntent {
		is.Accuracy = Accuracy(is.Correct, is.Count)
	}

	return summary
}

func (r *Runner) evaluate(u GoldenUtterance) EvalResult {
	predicted := r.classifier.ClassifyIntent(u.Text)
	profile := r.classifier.Analyze(u.Text)

	result := EvalResult{
		UtteranceID:   u.ID,
		Text:          u.Text,
		Intent:        u.Intent,
		Predicted:     predicted,
		IntentCorrect: predicted == u.Intent,
	}
	if !result.IntentCorrect {
		result.Mismatches = append(result.Mismatches, fmt.Sprintf("intent: want %s, got %s", u.Intent, predicted))
	}

	check := func(field, want, got string) {
		if want == "" {
			return
		}
		result.FieldsChecked++
		if want == got {
			result.FieldsMatched++
			return
		}
		result.Mismatches = append(result.Mismatches, fmt.Sprintf("%s: want %s, got %s", field, want, got))
	}

	exp := u.Expected
	check("move_type", string(exp.MoveType), string(profile.MoveType))
	check("budget_tier", string(exp.BudgetTier), string(profile.BudgetTier))
	check("timeline_urgency", string(exp.TimelineUrgency), string(profile.TimelineUrgency))
	check("family_size", string(exp.FamilySize), string(profile.FamilySize))
	check("home_size", string(exp.HomeSize), string(profile.HomeSizeGuess))

	wantNeeds := needStrings(exp.SpecialNeeds)
	gotNeeds := needStrings(profile.Needs())
	result.NeedsRecall = SetRecall(wantNeeds, gotNeeds)
	if result.NeedsRecall < 1.0 {
		result.Mismatches = append(result.Mismatches, fmt.Sprintf("special_needs: want %v, got %v", wantNeeds, gotNeeds))
	}

	return result
}

func needStrings(needs []entities.SpecialNeed) []string {
	out := make([]string, len(needs))
	for i, n := range needs {
		out[i] = string(n)
	}
	return out
}

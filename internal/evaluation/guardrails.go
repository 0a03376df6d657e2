package evaluation

import "fmt"

type GuardrailConfig struct {
	MinIntentAccuracy float64
	MinFieldAccuracy  float64
	MinNeedsRecall    float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	return &Guardrails{config: config}
}

// Check returns an error naming the first metric below its threshold.
func (g *Guardrails) Check(summary *EvalSummary) error {
	if summary.IntentAccuracy < g.config.MinIntentAccuracy {
		return fmt.Errorf("intent accuracy %.3f below threshold %.3f", summary.IntentAccuracy, g.config.MinIntentAccuracy)
	}
	if summary.FieldAccuracy < g.config.MinFieldAccuracy {
		return fmt.Errorf("field accuracy %.3f below threshold %.3f", summary.FieldAccuracy, g.config.MinFieldAccuracy)
	}
	if summary.AvgNeedsRecall < g.config.MinNeedsRecall {
		return fmt.Errorf("special needs recall %.3f below threshold %.3f", summary.AvgNeedsRecall, g.config.MinNeedsRecall)
	}
	return nil
}

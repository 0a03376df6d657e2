package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/internal/evaluation"
)

func newEvaluateCmd() *cobra.Command {
	var (
		dataPath string
		guard    evaluation.GuardrailConfig
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score message analysis against a golden utterance set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(dataPath, guard, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&dataPath, "data", "d", "config/golden_utterances.json", "Golden utterance JSON file")
	cmd.Flags().Float64Var(&guard.MinIntentAccuracy, "min-intent-accuracy", 0, "Fail when intent accuracy is lower")
	cmd.Flags().Float64Var(&guard.MinFieldAccuracy, "min-field-accuracy", 0, "Fail when profile field accuracy is lower")
	cmd.Flags().Float64Var(&guard.MinNeedsRecall, "min-needs-recall", 0, "Fail when special-needs recall is lower")
	return cmd
}

// runEvaluate prints the summary before applying guardrails so a failing run
// still reports its metrics.
func runEvaluate(path string, guard evaluation.GuardrailConfig, out io.Writer) error {
	utterances, err := evaluation.LoadGoldenUtterances(path)
	if err != nil {
		return err
	}
	if err := evaluation.ValidateGoldenUtterances(utterances); err != nil {
		return err
	}

	summary := evaluation.NewRunner(services.NewProfileAnalyzer()).Run(utterances)
	if err := printJSON(out, summary); err != nil {
		return err
	}
	return evaluation.NewGuardrails(guard).Check(summary)
}

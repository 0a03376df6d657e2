package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/internal/domain/entities"
)

type recommender interface {
	quoteCalculator
	GenerateRecommendations(ctx context.Context, in services.RecommendationInput) (*entities.RecommendationBundle, error)
}

func newRecommendCmd() *cobra.Command {
	var (
		flags   moveFlags
		message string
		session string
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Price a move and recommend a quote for a chat message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("--message required")
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			return runRecommend(cmd.Context(), rt.Engine, req, session, message, cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&message, "message", "m", "", "Chat message describing the move (required)")
	cmd.Flags().StringVar(&session, "session", "", "Session ID to continue (a new one is created when empty)")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func runRecommend(ctx context.Context, engine recommender, req entities.MoveRequest, session, message string, out io.Writer) error {
	result, err := engine.CalculateQuotes(ctx, req)
	if err != nil {
		return err
	}
	bundle, err := engine.GenerateRecommendations(ctx, services.RecommendationInput{
		SessionID:      session,
		Text:           message,
		Quotes:         result.Quotes,
		OriginZip:      req.OriginZip,
		DestinationZip: req.DestinationZip,
	})
	if err != nil {
		return err
	}
	return printJSON(out, bundle)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

const dateLayout = "2006-01-02"

type quoteCalculator interface {
	CalculateQuotes(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error)
}

// moveFlags are shared by every command that prices a move.
type moveFlags struct {
	from     string
	to       string
	date     string
	size     string
	services []string
	items    []string
}

func (f *moveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Origin ZIP code")
	cmd.Flags().StringVar(&f.to, "to", "", "Destination ZIP code")
	cmd.Flags().StringVar(&f.date, "date", "", "Move date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.size, "size", "s", "2-bedroom", "Home size (studio, 1-bedroom ... 5-bedroom)")
	cmd.Flags().StringSliceVar(&f.services, "service", nil, "Requested service (repeatable)")
	cmd.Flags().StringSliceVar(&f.items, "item", nil, "Special item (repeatable)")
}

func (f *moveFlags) request() (entities.MoveRequest, error) {
	if f.date == "" {
		return entities.MoveRequest{}, fmt.Errorf("--date required")
	}
	date, err := time.Parse(dateLayout, f.date)
	if err != nil {
		return entities.MoveRequest{}, fmt.Errorf("--date must be formatted as YYYY-MM-DD")
	}
	return entities.MoveRequest{
		OriginZip:         f.from,
		DestinationZip:    f.to,
		MoveDate:          date,
		HomeSize:          entities.HomeSize(f.size),
		RequestedServices: f.services,
		SpecialItems:      f.items,
	}, nil
}

func newQuoteCmd() *cobra.Command {
	var flags moveFlags
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Aggregate quotes from every active provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			return runQuote(cmd.Context(), rt.Engine, req, cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func runQuote(ctx context.Context, engine quoteCalculator, req entities.MoveRequest, out io.Writer) error {
	result, err := engine.CalculateQuotes(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

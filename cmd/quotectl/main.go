package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zatekoja/movequote/internal/bootstrap"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
	"github.com/zatekoja/movequote/pkg/config"
)

var (
	engineConfigFlag string
	verboseFlag      bool
	rootCmd          = &cobra.Command{
		Use:           "quotectl",
		Short:         "Query the moving-quote engine from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogger(verboseFlag)
		},
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&engineConfigFlag, "engine-config", "c", "", "Engine config JSON (overrides ENGINE_CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log at debug level to stderr")

	rootCmd.AddCommand(newQuoteCmd(), newRecommendCmd(), newEvaluateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configureLogger keeps stdout for JSON output; logs go to stderr.
func configureLogger(verbose bool) {
	level := zerolog.LevelWarnValue
	if verbose {
		level = zerolog.LevelDebugValue
	}
	observability.InitLogger(observability.LogOptions{
		ServiceName: "quotectl",
		Environment: "development",
		Level:       level,
		Output:      os.Stderr,
	})
}

func newRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if engineConfigFlag != "" {
		cfg.Engine.ConfigPath = engineConfigFlag
	}
	return bootstrap.New(ctx, cfg, nil)
}

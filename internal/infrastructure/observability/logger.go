package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// LogOptions describes the process the global logger reports for.
type LogOptions struct {
	ServiceName    string
	Version        string
	Environment    string
	Level          string
	ProviderSource string
	// Output defaults to stdout.
	Output io.Writer
}

type sessionKey struct{}

// InitLogger initializes the global zerolog logger. Development gets a
// console writer; every other environment logs JSON with caller info.
func InitLogger(opts LogOptions) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var ctx zerolog.Context
	if opts.Environment == "development" {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp()
	} else {
		ctx = zerolog.New(out).With().Timestamp().Caller()
	}

	ctx = ctx.Str("service", opts.ServiceName).Str("env", opts.Environment)
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}
	if opts.ProviderSource != "" {
		ctx = ctx.Str("provider_source", opts.ProviderSource)
	}
	log.Logger = ctx.Logger()
}

// WithSessionID tags ctx so loggers derived from it carry the session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFromContext returns the session id set by WithSessionID.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// LoggerFromContext returns a logger with trace and session context
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	lc := log.With()

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		lc = lc.
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String())
	}
	if id := SessionIDFromContext(ctx); id != "" {
		lc = lc.Str("session_id", id)
	}

	logger := lc.Logger()
	return &logger
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}

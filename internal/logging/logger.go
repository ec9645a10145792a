// Package logging wraps zerolog with request, actor and trace correlation.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/resolvd/internal/ctxutil"
)

var logger = zerolog.Nop()

// Init configures the process logger. Pretty selects the console writer used in development.
func Init(level string, pretty bool) error {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return InitWithWriter(out, level, pretty)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level string, withCaller bool) error {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}

	ctx := zerolog.New(w).Level(lvl).With().Timestamp()
	if withCaller {
		ctx = ctx.Caller()
	}
	logger = ctx.Logger()
	return nil
}

// Logger returns the process logger.
func Logger() *zerolog.Logger {
	return &logger
}

// WithContext returns the logger enriched with the trace, request and actor ids found in ctx.
func WithContext(ctx context.Context) zerolog.Logger {
	c := logger.With()
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		c = c.
			Str("traceId", span.SpanContext().TraceID().String()).
			Str("spanId", span.SpanContext().SpanID().String())
	}
	if id := ctxutil.RequestIDFromContext(ctx); id != "" {
		c = c.Str("requestId", id)
	}
	if actor := ctxutil.ActorFromContext(ctx); actor != "" {
		c = c.Str("actor", actor)
	}
	return c.Logger()
}

func Info(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Info()
}

func Error(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Error()
}

func Debug(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Debug()
}

func Warn(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Warn()
}

// Level returns an event at the named level, defaulting to info.
func Level(ctx context.Context, level string) *zerolog.Event {
	l := WithContext(ctx)
	switch level {
	case "debug":
		return l.Debug()
	case "warn":
		return l.Warn()
	case "error":
		return l.Error()
	default:
		return l.Info()
	}
}

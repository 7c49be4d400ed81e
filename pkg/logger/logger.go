package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type (
	correlationIDKey struct{}
	loggerKey        struct{}
)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New returns a JSON logger on stdout tagged with service.
func New(service, level string) *slog.Logger {
	return NewWithWriter(service, level, os.Stdout)
}

// NewWithWriter is New writing to w. Debug loggers also record the source
// location of each call.
func NewWithWriter(service, level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}
	return slog.New(slog.NewJSONHandler(w, opts)).With(slog.String("service", service))
}

// ParseLevel maps a level name, case-insensitively, to a slog.Level. Unknown
// names mean info.
func ParseLevel(level string) slog.Level {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// WithCorrelationID returns a new context carrying the correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext extracts the correlation ID from the context.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// NewContext stores l in ctx.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the request-scoped logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithContext returns l enriched with whichever of correlation_id, trace_id
// and span_id ctx carries.
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		return l.With(attrs...)
	}
	return l
}

func contextAttrs(ctx context.Context) []any {
	var attrs []any
	if id := CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}

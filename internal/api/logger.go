package api

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// TraceHandler stamps every record logged under an active span with its trace and span ids.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(next slog.Handler) TraceHandler {
	return TraceHandler{Handler: next}
}

func (h TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTraceHandler(h.Handler.WithAttrs(attrs))
}

func (h TraceHandler) WithGroup(name string) slog.Handler {
	return NewTraceHandler(h.Handler.WithGroup(name))
}

func NewLogger(w io.Writer, serviceName string, level slog.Level) *slog.Logger {
	handler := NewTraceHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	return slog.New(handler).With(slog.String("service", serviceName))
}

// SetupGlobalHandler installs the JSON logger as the slog default. Debug
// records are only emitted when debug is set.
func SetupGlobalHandler(serviceName string, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(NewLogger(os.Stdout, serviceName, level))

	slog.Debug("Logger initialized", "service", serviceName)
}

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

var defaultLogger *slog.Logger

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	InitializeWithWriter(level, format, os.Stdout)
}

// InitializeWithWriter is Initialize with an explicit destination.
func InitializeWithWriter(level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(traceHandler{handler})
	slog.SetDefault(defaultLogger)
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// traceHandler stamps records logged with a *Context call with the active span ids.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

// Get returns the default logger
func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	Get().Debug("→ Method entered", withPrefix(args, "method", methodName, "event", "enter")...)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	Get().Debug("← Method exited", withPrefix(args, "method", methodName, "event", "exit")...)
}

// ExitMethodWithError logs method exit with error (process tracking)
func ExitMethodWithError(methodName string, err error, args ...any) {
	Get().Error("← Method exited with error", withPrefix(args, "method", methodName, "event", "exit", "error", err)...)
}

// DatabaseCall logs a repository query before it runs.
func DatabaseCall(operation, query string, args ...any) {
	Get().Debug("→ Database call", withPrefix(args, "operation", operation, "query", query)...)
}

// DatabaseResult logs a repository query outcome. Failures are logged at error level.
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	all := withPrefix(args, "operation", operation, "rows_affected", rowsAffected)
	if err != nil {
		Get().Error("← Database call failed", append(all, "error", err)...)
		return
	}
	Get().Debug("← Database call succeeded", all...)
}

// ExternalServiceCall logs a call to SendGrid, Kafka or another remote dependency.
func ExternalServiceCall(service, operation string, args ...any) {
	Get().Debug("→ External service call", withPrefix(args, "service", service, "operation", operation)...)
}

func ExternalServiceResult(service, operation string, err error, args ...any) {
	all := withPrefix(args, "service", service, "operation", operation)
	if err != nil {
		Get().Error("← External service call failed", append(all, "error", err)...)
		return
	}
	Get().Debug("← External service call succeeded", all...)
}

func withPrefix(args []any, prefix ...any) []any {
	return append(prefix, args...)
}

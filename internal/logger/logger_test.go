package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	InitializeWithWriter(level, "json", &buf)
	t.Cleanup(func() { defaultLogger = nil })
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "warn")

	Info("dropped")
	assert.Zero(t, buf.Len())

	Warn("kept", "request_id", 7)
	rec := decode(t, buf)
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, float64(7), rec["request_id"])
}

func TestTraceCorrelation(t *testing.T) {
	buf := capture(t, "info")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	InfoContext(ctx, "with span")
	rec := decode(t, buf)
	assert.Equal(t, sc.TraceID().String(), rec["trace_id"])
	assert.Equal(t, sc.SpanID().String(), rec["span_id"])

	buf.Reset()
	InfoContext(context.Background(), "without span")
	rec = decode(t, buf)
	assert.NotContains(t, rec, "trace_id")
}

func TestDatabaseResult(t *testing.T) {
	buf := capture(t, "debug")

	DatabaseResult("UpdateInventory", 0, errors.New("boom"), "material_id", 5)
	rec := decode(t, buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "UpdateInventory", rec["operation"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, float64(5), rec["material_id"])
}

func TestExitMethodWithError(t *testing.T) {
	buf := capture(t, "info")

	ExitMethodWithError("RequestService.Approve", errors.New("insufficient stock"), "request_id", 3)
	rec := decode(t, buf)
	assert.Equal(t, "RequestService.Approve", rec["method"])
	assert.Equal(t, "exit", rec["event"])
	assert.Equal(t, "insufficient stock", rec["error"])
}

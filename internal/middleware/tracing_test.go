package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// withRecorder installs a recording tracer provider for the duration of a test
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

// =============================================================================
// DefaultTracingConfig Tests
// =============================================================================

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "socialgraph", cfg.ServiceName)
	assert.ElementsMatch(t, []string{"/health", "/metrics"}, cfg.SkipPaths)
	assert.False(t, cfg.RecordRequestBody)
}

// =============================================================================
// TracingMiddleware Tests
// =============================================================================

func TestTracingMiddleware_Disabled(t *testing.T) {
	app := fiber.New()
	app.Use(TracingMiddleware(TracingConfig{Enabled: false}))
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(body))
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
}

func TestTracingMiddleware_SkipPaths(t *testing.T) {
	recorder := withRecorder(t)

	app := fiber.New()
	app.Use(TracingMiddleware(TracingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health"},
	}))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("healthy")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, recorder.Ended())
}

func TestTracingMiddleware_RequestLifecycle(t *testing.T) {
	recorder := withRecorder(t)

	app := fiber.New()
	app.Use(TracingMiddleware(DefaultTracingConfig()))

	var handlerSpan trace.SpanContext
	app.Post("/", func(c *fiber.Ctx) error {
		// The request span is reachable through the user context
		handlerSpan = trace.SpanContextFromContext(c.UserContext())
		SetSpanAttributes(c, attribute.String("graphql.operation.name", "GetUsers"))
		assert.NotEmpty(t, GetTraceID(c))
		return c.Status(fiber.StatusBadRequest).SendString("bad")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	traceID := resp.Header.Get("X-Trace-ID")
	require.NotEmpty(t, traceID)
	assert.Equal(t, traceID, handlerSpan.TraceID().String())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /", spans[0].Name())

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "GetUsers", attrs["graphql.operation.name"].AsString())
	assert.Equal(t, int64(len("bad")), attrs["http.response_size"].AsInt64())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.Empty(t, GetTraceID(c))
		assert.False(t, GetTraceContext(c).IsValid())
		// Must not panic without a span
		SetSpanAttributes(c, attribute.String("k", "v"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestStructuredLogger_TraceID(t *testing.T) {
	withRecorder(t)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	app := fiber.New()
	app.Use(TracingMiddleware(DefaultTracingConfig()))
	app.Use(StructuredLogger(StructuredLoggerConfig{Logger: &logger}))
	app.Post("/", func(c *fiber.Ctx) error {
		return c.SendString("{}")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	traceID := resp.Header.Get("X-Trace-ID")
	require.NotEmpty(t, traceID)
	assert.Contains(t, buf.String(), `"trace_id":"`+traceID+`"`)
}

func TestStructuredLogger_NoTraceIDWithoutTracing(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	app := fiber.New()
	app.Use(StructuredLogger(StructuredLoggerConfig{Logger: &logger}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotContains(t, buf.String(), "trace_id")
}

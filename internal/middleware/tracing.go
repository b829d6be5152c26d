package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "socialgraph-http"

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	// Enabled controls whether tracing is active
	Enabled bool

	// ServiceName is recorded on every request span
	ServiceName string

	// SkipPaths are paths that should not be traced (e.g., /health, /metrics)
	SkipPaths []string

	// RecordRequestBody records the request body (the GraphQL query) as a span attribute
	RecordRequestBody bool
}

// DefaultTracingConfig returns sensible defaults
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:           true,
		ServiceName:       "socialgraph",
		SkipPaths:         []string{"/health", "/metrics"},
		RecordRequestBody: false,
	}
}

// TracingMiddleware returns a Fiber middleware that creates spans for HTTP requests.
// The span context becomes the request's user context, so GraphQL and
// database spans started further down nest under it.
func TracingMiddleware(cfg TracingConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	tracer := otel.Tracer(tracerName)

	skipPaths := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if skipPaths[path] {
			return c.Next()
		}

		// Continue a trace started by the caller
		ctx := otel.GetTextMapPropagator().Extract(
			c.UserContext(),
			propagation.HeaderCarrier(c.GetReqHeaders()),
		)

		spanName := fmt.Sprintf("%s %s", c.Method(), path)

		ctx, span := tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Method()),
				semconv.HTTPRoute(path),
				semconv.HTTPScheme(c.Protocol()),
				attribute.String("service.name", cfg.ServiceName),
				attribute.String("http.user_agent", c.Get("User-Agent")),
				attribute.String("net.peer.ip", c.IP()),
			),
		)
		defer span.End()

		c.Locals("trace_span", span)
		c.SetUserContext(ctx)

		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		if cfg.RecordRequestBody && len(c.Body()) > 0 && len(c.Body()) < 4096 {
			span.SetAttributes(attribute.String("http.request.body", string(c.Body())))
		}

		err := c.Next()

		statusCode := c.Response().StatusCode()
		span.SetAttributes(
			semconv.HTTPStatusCode(statusCode),
			attribute.Int("http.response_size", len(c.Response().Body())),
		)

		if statusCode >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return err
	}
}

// GetTraceContext returns the span context of the request span
func GetTraceContext(c *fiber.Ctx) trace.SpanContext {
	if span, ok := c.Locals("trace_span").(trace.Span); ok {
		return span.SpanContext()
	}
	return trace.SpanContext{}
}

// GetTraceID returns the trace ID from the Fiber context
func GetTraceID(c *fiber.Ctx) string {
	ctx := GetTraceContext(c)
	if ctx.HasTraceID() {
		return ctx.TraceID().String()
	}
	return ""
}

// SetSpanAttributes sets attributes on the request span
func SetSpanAttributes(c *fiber.Ctx, attrs ...attribute.KeyValue) {
	if span, ok := c.Locals("trace_span").(trace.Span); ok && span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sensitiveQueryParams are query parameters that should be redacted from logs
var sensitiveQueryParams = []string{"token", "access_token", "api_key", "apikey", "key", "secret", "password"}

// StructuredLoggerConfig holds configuration for structured logging
type StructuredLoggerConfig struct {
	// SkipPaths are paths that should not be logged (e.g., health checks)
	SkipPaths []string
	// SkipSuccessfulRequests skips logging successful requests (2xx status codes)
	SkipSuccessfulRequests bool
	// Logger is the zerolog logger to use (defaults to global log)
	Logger *zerolog.Logger
	// LogRequestBody logs the request body, which carries the GraphQL query text
	LogRequestBody bool
	// SlowRequestThreshold logs slow requests with WARN level (0 = disabled)
	SlowRequestThreshold time.Duration
}

// DefaultStructuredLoggerConfig returns default configuration
func DefaultStructuredLoggerConfig() StructuredLoggerConfig {
	return StructuredLoggerConfig{
		SkipPaths: []string{
			"/health",
			"/metrics",
		},
		SkipSuccessfulRequests: false,
		Logger:                 nil,
		LogRequestBody:         false,
		SlowRequestThreshold:   1 * time.Second,
	}
}

// redactQueryString redacts sensitive query parameters from a query string
func redactQueryString(queryString string) string {
	if queryString == "" {
		return ""
	}

	values, err := url.ParseQuery(queryString)
	if err != nil {
		return "[redacted]"
	}

	for key := range values {
		for _, param := range sensitiveQueryParams {
			if strings.EqualFold(key, param) {
				values.Set(key, "[redacted]")
			}
		}
	}

	return values.Encode()
}

// StructuredLogger returns a middleware that logs requests with structured logging.
// Handlers can add the GraphQL operation name through the "graphql_operation" local.
func StructuredLogger(config ...StructuredLoggerConfig) fiber.Handler {
	cfg := DefaultStructuredLoggerConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if skipPaths[path] {
			return c.Next()
		}

		start := time.Now()

		// Set by the requestid middleware
		requestID := c.Locals("requestid")
		if requestID == nil {
			requestID = c.Get("X-Request-ID", "")
		}

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		if cfg.SkipSuccessfulRequests && err == nil && status >= 200 && status < 300 {
			return err
		}

		var logEvent *zerolog.Event
		switch {
		case err != nil:
			logEvent = logger.Error().Err(err)
		case status >= 500:
			logEvent = logger.Error()
		case status >= 400:
			logEvent = logger.Warn()
		case cfg.SlowRequestThreshold > 0 && duration > cfg.SlowRequestThreshold:
			logEvent = logger.Warn().Bool("slow_request", true)
		default:
			logEvent = logger.Info()
		}

		logEvent = logEvent.
			Str("request_id", toString(requestID)).
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Str("user_agent", c.Get("User-Agent"))

		// Set by TracingMiddleware when it runs before this logger
		if traceID := GetTraceID(c); traceID != "" {
			logEvent = logEvent.Str("trace_id", traceID)
		}

		if queryString := string(c.Request().URI().QueryString()); queryString != "" {
			logEvent = logEvent.Str("query", redactQueryString(queryString))
		}

		if operation := c.Locals("graphql_operation"); operation != nil {
			logEvent = logEvent.Str("graphql_operation", toString(operation))
		}

		logEvent = logEvent.Int("response_bytes", len(c.Response().Body()))

		if cfg.LogRequestBody && len(c.Body()) > 0 {
			body := c.Body()
			if len(body) > 1024 {
				logEvent = logEvent.Str("request_body", string(body[:1024])+"... (truncated)")
			} else {
				logEvent = logEvent.Str("request_body", string(body))
			}
		}

		logEvent.Msg("HTTP request")

		return err
	}
}

// toString safely converts interface{} to string
func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

package middleware

import (
	"fmt"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/memory/v2"
	"github.com/rs/zerolog/log"
)

// RateLimitedCode is the error code returned in the extensions of a 429 response
const RateLimitedCode = "RATE_LIMITED"

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	Name       string                  // Label used for metrics and logs
	Max        int                     // Maximum number of requests
	Expiration time.Duration           // Time window for the rate limit
	KeyFunc    func(*fiber.Ctx) string // Function to generate the key for rate limiting
	Message    string                  // Custom error message
	Storage    fiber.Storage           // Counter storage, in-memory when nil
	Metrics    *observability.Metrics  // Optional
}

// NewRateLimiter creates a new rate limiter middleware with custom configuration.
// Rejected requests get a GraphQL-shaped error body so clients can handle them
// like any other operation error.
func NewRateLimiter(config RateLimiterConfig) fiber.Handler {
	if config.Storage == nil {
		config.Storage = memory.New(memory.Config{
			GCInterval: 10 * time.Minute,
		})
	}

	// Default key function uses IP address
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *fiber.Ctx) string {
			return c.IP()
		}
	}

	if config.Name == "" {
		config.Name = "default"
	}

	if config.Message == "" {
		config.Message = fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %s allowed.",
			config.Max, config.Expiration.String())
	}

	return limiter.New(limiter.Config{
		Max:          config.Max,
		Expiration:   config.Expiration,
		KeyGenerator: config.KeyFunc,
		LimitReached: func(c *fiber.Ctx) error {
			if config.Metrics != nil {
				config.Metrics.RecordRateLimitHit(config.Name)
			}
			log.Debug().
				Str("limiter", config.Name).
				Str("ip", c.IP()).
				Str("path", c.Path()).
				Msg("Rate limit exceeded")

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"errors": []fiber.Map{
					{
						"message":    config.Message,
						"extensions": fiber.Map{"code": RateLimitedCode},
					},
				},
				"retry_after": int(config.Expiration.Seconds()),
			})
		},
		Storage: config.Storage,
	})
}

// GraphQLLimiter limits GraphQL requests per client IP
func GraphQLLimiter(max int, window time.Duration, storage fiber.Storage, metrics *observability.Metrics) fiber.Handler {
	return NewRateLimiter(RateLimiterConfig{
		Name:       "graphql",
		Max:        max,
		Expiration: window,
		KeyFunc: func(c *fiber.Ctx) string {
			return "graphql:" + c.IP()
		},
		Storage: storage,
		Metrics: metrics,
	})
}

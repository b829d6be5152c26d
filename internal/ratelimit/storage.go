// Package ratelimit provides the counter storage behind the GraphQL rate limiter.
// The memory backend suits a single instance; the redis backend shares
// counters between instances.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/rs/zerolog/log"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	memoryGCInterval = 10 * time.Minute
)

// NewStorage creates the fiber.Storage used by the limiter middleware
func NewStorage(cfg config.RateLimitConfig) (fiber.Storage, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		log.Info().Msg("Using in-memory rate limit storage (single instance mode)")
		return memory.New(memory.Config{
			GCInterval: memoryGCInterval,
		}), nil

	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis_url is required for redis rate limit backend")
		}
		log.Info().Msg("Using Redis rate limit storage (multi-instance mode)")
		storage, err := NewRedisStorage(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return storage, nil

	default:
		return nil, fmt.Errorf("unknown rate limit backend: %s (valid options: memory, redis)", cfg.Backend)
	}
}

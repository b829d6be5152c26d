package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix        = "socialgraph:ratelimit:"
	operationTimeout = 5 * time.Second
)

var _ fiber.Storage = (*RedisStorage)(nil)

// RedisStorage implements fiber.Storage on Redis or a Redis-compatible server.
// Keys are namespaced so Reset only touches limiter entries.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage connects to url and verifies the connection.
// url should be in the format: redis://[password@]host:port[/db]
func NewRedisStorage(url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis for rate limiting")

	return &RedisStorage{client: client}, nil
}

// NewRedisStorageFromClient wraps an existing client
func NewRedisStorageFromClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// Get returns the stored value, or nil when the key is missing or expired
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to read rate limit entry from Redis")
		return nil, err
	}
	return val, nil
}

// Set stores val for exp. A zero exp keeps the key until it is deleted.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	return s.client.Set(ctx, keyPrefix+key, val, exp).Err()
}

// Delete removes one entry
func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	return s.client.Del(ctx, keyPrefix+key).Err()
}

// Reset removes every limiter entry
func (s *RedisStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis client connection
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

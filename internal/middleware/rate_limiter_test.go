package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(handler)
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

// =============================================================================
// NewRateLimiter Tests
// =============================================================================

func TestNewRateLimiter_DefaultKeyFunc(t *testing.T) {
	app := newLimitedApp(NewRateLimiter(RateLimiterConfig{
		Max:        10,
		Expiration: time.Minute,
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNewRateLimiter_CustomMessage(t *testing.T) {
	customMessage := "Custom rate limit error message"

	app := newLimitedApp(NewRateLimiter(RateLimiterConfig{
		Max:        1,
		Expiration: time.Hour,
		Message:    customMessage,
	}))

	resp1, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp1.StatusCode)

	resp2, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp2.StatusCode)

	body, _ := io.ReadAll(resp2.Body)
	assert.Contains(t, string(body), customMessage)
}

func TestNewRateLimiter_RetryAfterHeader(t *testing.T) {
	app := newLimitedApp(NewRateLimiter(RateLimiterConfig{
		Max:        1,
		Expiration: 30 * time.Second,
	}))

	_, _ = app.Test(httptest.NewRequest("GET", "/test", nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))
}

func TestRateLimitResponse_Format(t *testing.T) {
	app := newLimitedApp(NewRateLimiter(RateLimiterConfig{
		Max:        1,
		Expiration: time.Minute,
		Message:    "slow down",
	}))

	_, _ = app.Test(httptest.NewRequest("GET", "/test", nil))
	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)

	var body struct {
		Errors []struct {
			Message    string                 `json:"message"`
			Extensions map[string]interface{} `json:"extensions"`
		} `json:"errors"`
		RetryAfter int `json:"retry_after"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Errors, 1)
	assert.Equal(t, "slow down", body.Errors[0].Message)
	assert.Equal(t, RateLimitedCode, body.Errors[0].Extensions["code"])
	assert.Equal(t, 60, body.RetryAfter)
}

func TestNewRateLimiter_SharedStorage(t *testing.T) {
	// Two limiters on one store count against the same keys, which is how
	// several instances share a redis backend.
	storage := memory.New()
	cfg := RateLimiterConfig{
		Max:        1,
		Expiration: time.Minute,
		KeyFunc:    func(c *fiber.Ctx) string { return "shared" },
		Storage:    storage,
	}

	first := newLimitedApp(NewRateLimiter(cfg))
	second := newLimitedApp(NewRateLimiter(cfg))

	resp, err := first.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = second.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
}

// =============================================================================
// Key Function Tests
// =============================================================================

func TestKeyFunc_Custom(t *testing.T) {
	var capturedKey string
	app := newLimitedApp(NewRateLimiter(RateLimiterConfig{
		Max:        100,
		Expiration: time.Minute,
		KeyFunc: func(c *fiber.Ctx) string {
			capturedKey = "custom:" + c.IP()
			return capturedKey
		},
	}))

	_, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Contains(t, capturedKey, "custom:")
}

// =============================================================================
// GraphQLLimiter Tests
// =============================================================================

func TestGraphQLLimiter_RecordsHits(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newLimitedApp(GraphQLLimiter(2, time.Minute, nil, metrics))

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, statuses)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var hits float64
	for _, mf := range families {
		if mf.GetName() != "socialgraph_rate_limit_hits_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			hits += m.GetCounter().GetValue()
			require.Len(t, m.GetLabel(), 1)
			assert.Equal(t, "graphql", m.GetLabel()[0].GetValue())
		}
	}
	assert.Equal(t, float64(2), hits)
}

func TestGraphQLLimiter_NilMetrics(t *testing.T) {
	app := newLimitedApp(GraphQLLimiter(1, time.Minute, memory.New(), nil))

	_, _ = app.Test(httptest.NewRequest("GET", "/test", nil))
	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
}

// =============================================================================
// Concurrent Request Tests
// =============================================================================

func TestRateLimiter_ConcurrentRequests(t *testing.T) {
	app := newLimitedApp(NewRateLimiter(RateLimiterConfig{
		Max:        1000,
		Expiration: time.Minute,
	}))

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
				if err == nil {
					resp.Body.Close()
				}
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

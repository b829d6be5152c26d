package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/config"
	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/fluxbase-eu/socialgraph/internal/store/memstore"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDatabase struct {
	healthErr error
	stats     observability.PoolStats
}

func (f *fakeDatabase) Health(context.Context) error {
	return f.healthErr
}

func (f *fakeDatabase) PoolStats() observability.PoolStats {
	return f.stats
}

func testServerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:     ":0",
			BodyLimit:   1024 * 1024,
			CORSOrigins: "*",
		},
		GraphQL: config.GraphQLConfig{Enabled: true, Introspection: true},
		RateLimit: config.RateLimitConfig{
			Backend: "memory",
			Max:     100,
			Window:  time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, db Database) *Server {
	t.Helper()
	server, err := NewServer(cfg, memstore.New().Client(), db, observability.NewMetrics())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
	})
	return server
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// =============================================================================
// Health
// =============================================================================

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Database
		wantStatus int
		wantBody   string
	}{
		{"no database", nil, fiber.StatusOK, "ok"},
		{"healthy database", &fakeDatabase{}, fiber.StatusOK, "ok"},
		{"failing database", &fakeDatabase{healthErr: errors.New("connection refused")}, fiber.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, testServerConfig(), tt.db)

			status, body := getJSON(t, server.App(), "/health")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body["status"])
			assert.Contains(t, body, "timestamp")
		})
	}
}

// =============================================================================
// Monitoring
// =============================================================================

func TestMonitoring_Metrics(t *testing.T) {
	db := &fakeDatabase{stats: observability.PoolStats{Total: 4, Idle: 3, Max: 25}}
	server := newTestServer(t, testServerConfig(), db)

	status, body := getJSON(t, server.App(), "/api/v1/monitoring/metrics")
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["go_version"])

	dbStats := body["database"].(map[string]interface{})
	assert.Equal(t, float64(4), dbStats["total_conns"])
	assert.Equal(t, float64(3), dbStats["idle_conns"])
	assert.Equal(t, float64(25), dbStats["max_conns"])
}

func TestMonitoring_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         Database
		wantStatus int
		wantHealth string
	}{
		{"healthy", &fakeDatabase{}, fiber.StatusOK, "healthy"},
		{"unhealthy", &fakeDatabase{healthErr: errors.New("timeout")}, fiber.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, testServerConfig(), tt.db)

			status, body := getJSON(t, server.App(), "/api/v1/monitoring/health")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantHealth, body["status"])

			services := body["services"].(map[string]interface{})
			assert.Equal(t, tt.wantHealth, services["database"].(map[string]interface{})["status"])
		})
	}
}

// =============================================================================
// Routes
// =============================================================================

func TestServer_GraphQLAndPrometheus(t *testing.T) {
	server := newTestServer(t, testServerConfig(), nil)
	app := server.App()

	req := httptest.NewRequest("POST", "/", bytes.NewReader([]byte(`{"query":"{ memberTypes { id } }"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "socialgraph_graphql_operations_total")
}

func TestServer_GraphQLDisabled(t *testing.T) {
	cfg := testServerConfig()
	cfg.GraphQL.Enabled = false
	server := newTestServer(t, cfg, nil)

	req := httptest.NewRequest("POST", "/", bytes.NewReader([]byte(`{"query":"{ users { id } }"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Max = 1
	server := newTestServer(t, cfg, nil)

	statuses := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/", bytes.NewReader([]byte(`{"query":"{ users { id } }"}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := server.App().Test(req)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusTooManyRequests}, statuses)

	// Health checks are not limited
	status, _ := getJSON(t, server.App(), "/health")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestNewServer_InvalidRateLimitBackend(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Backend = "redis"
	cfg.RateLimit.RedisURL = ""

	_, err := NewServer(cfg, memstore.New().Client(), nil, nil)
	assert.Error(t, err)
}

// =============================================================================
// Error handler
// =============================================================================

func TestCustomErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"fiber error", fiber.NewError(fiber.StatusBadRequest, "bad input"), fiber.StatusBadRequest, "bad input"},
		{"not found", fiber.ErrNotFound, fiber.StatusNotFound, "Not Found"},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
			app.Get("/test", func(c *fiber.Ctx) error {
				return tt.err
			})

			status, body := getJSON(t, app, "/test")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, body["error"])
			assert.Equal(t, float64(tt.wantStatus), body["code"])
		})
	}
}

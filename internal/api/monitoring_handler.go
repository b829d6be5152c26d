package api

import (
	"context"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// MonitoringHandler handles system monitoring and health check endpoints
type MonitoringHandler struct {
	db        Database
	startTime time.Time
}

// NewMonitoringHandler creates a new monitoring handler. db may be nil when
// the server runs without a database (tests).
func NewMonitoringHandler(db Database) *MonitoringHandler {
	return &MonitoringHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers monitoring routes
func (h *MonitoringHandler) RegisterRoutes(app *fiber.App) {
	monitoring := app.Group("/api/v1/monitoring")
	monitoring.Get("/metrics", h.GetMetrics)
	monitoring.Get("/health", h.GetHealth)
}

// SystemMetrics represents system-wide metrics
type SystemMetrics struct {
	// System info
	Uptime       int64  `json:"uptime_seconds"`
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`

	// Memory stats
	MemoryAllocMB      uint64  `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64  `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64  `json:"memory_sys_mb"`
	NumGC              uint32  `json:"num_gc"`
	GCPauseMS          float64 `json:"gc_pause_ms"`

	// Host memory, omitted when the platform does not report it
	Host *HostStats `json:"host,omitempty"`

	DatabaseStats DatabaseStats `json:"database"`
}

// HostStats represents memory usage of the machine the server runs on
type HostStats struct {
	TotalMB     uint64  `json:"total_mb"`
	AvailableMB uint64  `json:"available_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// DatabaseStats represents database connection pool stats
type DatabaseStats struct {
	TotalConns int32 `json:"total_conns"`
	IdleConns  int32 `json:"idle_conns"`
	MaxConns   int32 `json:"max_conns"`
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status  string `json:"status"` // "healthy" or "unhealthy"
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// SystemHealth represents the health of all system components
type SystemHealth struct {
	Status   string                  `json:"status"`
	Services map[string]HealthStatus `json:"services"`
}

// GetMetrics returns system metrics
func (h *MonitoringHandler) GetMetrics(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics := SystemMetrics{
		Uptime:       int64(time.Since(h.startTime).Seconds()),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),

		MemoryAllocMB:      m.Alloc / 1024 / 1024,
		MemoryTotalAllocMB: m.TotalAlloc / 1024 / 1024,
		MemorySysMB:        m.Sys / 1024 / 1024,
		NumGC:              m.NumGC,
		GCPauseMS:          float64(m.PauseNs[(m.NumGC+255)%256]) / 1000000,
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		metrics.Host = &HostStats{
			TotalMB:     vmStat.Total / 1024 / 1024,
			AvailableMB: vmStat.Available / 1024 / 1024,
			UsedPercent: vmStat.UsedPercent,
		}
	} else {
		log.Debug().Err(err).Msg("Host memory stats unavailable")
	}

	if h.db != nil {
		stats := h.db.PoolStats()
		metrics.DatabaseStats = DatabaseStats{
			TotalConns: stats.Total,
			IdleConns:  stats.Idle,
			MaxConns:   stats.Max,
		}
	}

	return c.JSON(metrics)
}

// GetHealth returns the health status of all system components
func (h *MonitoringHandler) GetHealth(c *fiber.Ctx) error {
	health := SystemHealth{
		Status:   "healthy",
		Services: make(map[string]HealthStatus),
	}

	if h.db != nil {
		dbStart := time.Now()
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		err := h.db.Health(ctx)
		dbLatency := time.Since(dbStart).Milliseconds()

		if err != nil {
			health.Services["database"] = HealthStatus{
				Status:  "unhealthy",
				Message: err.Error(),
				Latency: dbLatency,
			}
			health.Status = "unhealthy"
		} else {
			health.Services["database"] = HealthStatus{
				Status:  "healthy",
				Latency: dbLatency,
			}
		}
	}

	if health.Status == "unhealthy" {
		c.Status(fiber.StatusServiceUnavailable)
	}

	return c.JSON(health)
}

package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics exported by the server
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Database metrics
	dbQueriesTotal    *prometheus.CounterVec
	dbQueryDuration   *prometheus.HistogramVec
	dbQueryErrors     *prometheus.CounterVec
	dbConnections     prometheus.Gauge
	dbConnectionsIdle prometheus.Gauge
	dbConnectionsMax  prometheus.Gauge

	// GraphQL metrics
	graphqlOperationsTotal   *prometheus.CounterVec
	graphqlOperationDuration *prometheus.HistogramVec
	graphqlRejectedTotal     *prometheus.CounterVec
	graphqlResolverErrors    *prometheus.CounterVec

	rateLimitHitsTotal *prometheus.CounterVec

	systemUptime prometheus.Gauge
}

// NewMetrics creates the metric set on a dedicated registry, so several
// instances can coexist in one process (tests create one per server).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialgraph_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialgraph_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		dbQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_db_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialgraph_db_query_duration_seconds",
				Help:    "Database query latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation", "table"},
		),
		dbQueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_db_query_errors_total",
				Help: "Total number of failed database queries",
			},
			[]string{"operation", "table"},
		),
		dbConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialgraph_db_connections",
				Help: "Current number of database connections",
			},
		),
		dbConnectionsIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialgraph_db_connections_idle",
				Help: "Current number of idle database connections",
			},
		),
		dbConnectionsMax: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialgraph_db_connections_max",
				Help: "Maximum number of database connections",
			},
		),

		graphqlOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_graphql_operations_total",
				Help: "Total number of executed GraphQL operations",
			},
			[]string{"type", "status"},
		),
		graphqlOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialgraph_graphql_operation_duration_seconds",
				Help:    "GraphQL execution latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"type"},
		),
		graphqlRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_graphql_rejected_total",
				Help: "Total number of GraphQL requests rejected before execution",
			},
			[]string{"reason"},
		),
		graphqlResolverErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_graphql_resolver_errors_total",
				Help: "Total number of resolver errors by error code",
			},
			[]string{"code"},
		),

		rateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limiter_type"},
		),

		systemUptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "socialgraph_system_uptime_seconds",
				Help: "System uptime in seconds",
			},
		),
	}
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MetricsMiddleware records request counts and latencies
func (m *Metrics) MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.httpRequestsInFlight.Inc()
		defer m.httpRequestsInFlight.Dec()

		path := normalizePath(c.Path())
		method := c.Method()

		err := c.Next()

		status := statusClass(c.Response().StatusCode())
		m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.dbQueriesTotal.WithLabelValues(operation, table).Inc()
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// UpdateDBStats updates database connection pool gauges
func (m *Metrics) UpdateDBStats(total, idle, max int32) {
	m.dbConnections.Set(float64(total))
	m.dbConnectionsIdle.Set(float64(idle))
	m.dbConnectionsMax.Set(float64(max))
}

// RecordGraphQLOperation records an executed operation.
// opType is query or mutation; failed is true when the result carried errors.
func (m *Metrics) RecordGraphQLOperation(opType string, duration time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	m.graphqlOperationsTotal.WithLabelValues(opType, status).Inc()
	m.graphqlOperationDuration.WithLabelValues(opType).Observe(duration.Seconds())
}

// RecordGraphQLRejection records a request rejected before execution
func (m *Metrics) RecordGraphQLRejection(reason string) {
	m.graphqlRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordResolverError records a resolver error by its extension code
func (m *Metrics) RecordResolverError(code string) {
	m.graphqlResolverErrors.WithLabelValues(code).Inc()
}

// RecordRateLimitHit records a rate limit hit
func (m *Metrics) RecordRateLimitHit(limiterType string) {
	m.rateLimitHitsTotal.WithLabelValues(limiterType).Inc()
}

// UpdateUptime updates the system uptime metric
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.systemUptime.Set(time.Since(startTime).Seconds())
}

// Handler returns a Fiber handler that exposes Prometheus metrics
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// normalizePath keeps label cardinality bounded
func normalizePath(path string) string {
	if len(path) > 50 {
		return "long_path"
	}
	return path
}

// statusClass returns the HTTP status class (2xx, 3xx, 4xx, 5xx)
func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

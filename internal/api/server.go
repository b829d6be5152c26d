package api

import (
	"context"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/config"
	"github.com/fluxbase-eu/socialgraph/internal/middleware"
	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/fluxbase-eu/socialgraph/internal/ratelimit"
	"github.com/fluxbase-eu/socialgraph/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"
)

// Database is the part of the connection the HTTP layer needs for health
// checks and monitoring
type Database interface {
	Health(ctx context.Context) error
	PoolStats() observability.PoolStats
}

// Server represents the HTTP server
type Server struct {
	app               *fiber.App
	config            *config.Config
	db                Database
	store             *store.Client
	tracer            *observability.Tracer
	metrics           *observability.Metrics
	rateLimitStorage  fiber.Storage
	graphqlHandler    *GraphQLHandler
	monitoringHandler *MonitoringHandler
}

// NewServer creates a new HTTP server. db may be nil, in which case health
// checks only report the server itself. metrics may be nil.
func NewServer(cfg *config.Config, client *store.Client, db Database, metrics *observability.Metrics) (*Server, error) {
	app := fiber.New(fiber.Config{
		ServerHeader:          "SocialGraph",
		AppName:               "SocialGraph v1.0.0",
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		DisableStartupMessage: !cfg.Debug,
		ErrorHandler:          customErrorHandler,
		Prefork:               false,
	})

	// Initialize OpenTelemetry tracer
	tracer, err := observability.NewTracer(context.Background(), observability.TracerConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize OpenTelemetry tracer, tracing will be disabled")
	}

	server := &Server{
		app:               app,
		config:            cfg,
		db:                db,
		store:             client,
		tracer:            tracer,
		metrics:           metrics,
		graphqlHandler:    NewGraphQLHandler(client, &cfg.GraphQL, metrics),
		monitoringHandler: NewMonitoringHandler(db),
	}

	if cfg.RateLimit.Enabled {
		storage, err := ratelimit.NewStorage(cfg.RateLimit)
		if err != nil {
			return nil, err
		}
		server.rateLimitStorage = storage
	}

	log.Debug().Msg("Setting up middlewares")
	server.setupMiddlewares()

	log.Debug().Msg("Setting up routes")
	server.setupRoutes()

	log.Debug().Msg("Server initialization complete")
	return server, nil
}

// setupMiddlewares sets up global middlewares
func (s *Server) setupMiddlewares() {
	// Request ID middleware - must be first for tracing and logging
	s.app.Use(requestid.New())

	if s.config.Tracing.Enabled && s.tracer != nil && s.tracer.IsEnabled() {
		log.Debug().Msg("Adding OpenTelemetry tracing middleware")
		tracingCfg := middleware.DefaultTracingConfig()
		tracingCfg.ServiceName = s.config.Tracing.ServiceName
		s.app.Use(middleware.TracingMiddleware(tracingCfg))
	}

	loggerCfg := middleware.DefaultStructuredLoggerConfig()
	loggerCfg.LogRequestBody = s.config.Debug
	if s.config.Metrics.Path != "" {
		loggerCfg.SkipPaths = append(loggerCfg.SkipPaths, s.config.Metrics.Path)
	}
	s.app.Use(middleware.StructuredLogger(loggerCfg))

	// Recover middleware - catch panics
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: s.config.Debug,
	}))

	log.Debug().Str("origins", s.config.Server.CORSOrigins).Msg("Adding CORS middleware")
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.config.Server.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	if s.metrics != nil && s.config.Metrics.Enabled {
		s.app.Use(s.metrics.MetricsMiddleware())
	}

	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
	}))
}

// setupRoutes sets up all routes
func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)

	if s.metrics != nil && s.config.Metrics.Enabled {
		s.app.Get(s.config.Metrics.Path, s.metrics.Handler())
	}

	s.monitoringHandler.RegisterRoutes(s.app)

	if !s.config.GraphQL.Enabled {
		log.Warn().Msg("GraphQL endpoint disabled")
		return
	}

	var limiters []fiber.Handler
	if s.rateLimitStorage != nil {
		log.Info().
			Int("max", s.config.RateLimit.Max).
			Dur("window", s.config.RateLimit.Window).
			Str("backend", s.config.RateLimit.Backend).
			Msg("Enabling GraphQL rate limiter")
		limiters = append(limiters, middleware.GraphQLLimiter(
			s.config.RateLimit.Max,
			s.config.RateLimit.Window,
			s.rateLimitStorage,
			s.metrics,
		))
	}
	s.graphqlHandler.RegisterRoutes(s.app, limiters...)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *fiber.Ctx) error {
	dbHealthy := true
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if err := s.db.Health(ctx); err != nil {
			dbHealthy = false
			log.Error().Err(err).Msg("Database health check failed")
		}
	}

	status := "ok"
	httpStatus := fiber.StatusOK
	if !dbHealthy {
		status = "degraded"
		httpStatus = fiber.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"services": fiber.Map{
			"database": dbHealthy,
			"graphql":  s.config.GraphQL.Enabled,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.app.Listen(s.config.Server.Address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	err := s.app.ShutdownWithContext(ctx)

	if s.rateLimitStorage != nil {
		if cerr := s.rateLimitStorage.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to close rate limit storage")
		}
	}

	// Flush remaining spans
	if s.tracer != nil {
		if terr := s.tracer.Shutdown(ctx); terr != nil {
			log.Warn().Err(terr).Msg("Failed to shutdown OpenTelemetry tracer")
		}
	}

	return err
}

// App returns the underlying Fiber app instance for testing
func (s *Server) App() *fiber.App {
	return s.app
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		log.Error().Err(err).Str("path", c.Path()).Msg("Server error")
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fluxbase-eu/socialgraph/internal/config"
	"github.com/fluxbase-eu/socialgraph/internal/observability"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const slowQueryThreshold = time.Second

var tablePatterns = []struct {
	prefix string
	regex  *regexp.Regexp
}{
	{"SELECT", regexp.MustCompile(`FROM\s+["']?(\w+)["']?`)},
	{"INSERT", regexp.MustCompile(`INTO\s+["']?(\w+)["']?`)},
	{"UPDATE", regexp.MustCompile(`UPDATE\s+["']?(\w+)["']?`)},
	{"DELETE", regexp.MustCompile(`FROM\s+["']?(\w+)["']?`)},
}

// Connection represents a database connection pool
type Connection struct {
	pool    *pgxpool.Pool
	config  *config.DatabaseConfig
	metrics *observability.Metrics
}

// SetMetrics sets the metrics instance for recording database metrics
func (c *Connection) SetMetrics(m *observability.Metrics) {
	c.metrics = m
}

// extractTableName returns the first table named by a statement, or "unknown"
func extractTableName(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))

	for _, p := range tablePatterns {
		if strings.HasPrefix(sql, p.prefix) {
			if matches := p.regex.FindStringSubmatch(sql); len(matches) > 1 {
				return strings.ToLower(matches[1])
			}
		}
	}

	return "unknown"
}

// extractOperation extracts the SQL operation type from a query
func extractOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case strings.HasPrefix(sql, "SELECT"):
		return "select"
	case strings.HasPrefix(sql, "INSERT"):
		return "insert"
	case strings.HasPrefix(sql, "UPDATE"):
		return "update"
	case strings.HasPrefix(sql, "DELETE"):
		return "delete"
	default:
		return "other"
	}
}

// NewConnection creates a new database connection pool
func NewConnection(ctx context.Context, cfg config.DatabaseConfig) (*Connection, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheck

	// Discard connections that died while idle instead of handing them out.
	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := conn.Ping(pingCtx); err != nil {
			log.Debug().Err(err).Msg("Discarding unhealthy connection from pool")
			return false
		}
		return true
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Str("user", cfg.User).
		Msg("Database connection established")

	return &Connection{pool: pool, config: &cfg}, nil
}

// Close closes the database connection pool
func (c *Connection) Close() {
	c.pool.Close()
	log.Info().Msg("Database connection closed")
}

// Migrate applies the embedded schema migrations
func (c *Connection) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	dsn := strings.Replace(c.config.ConnectionString(), "postgres://", "pgx5://", 1)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source_error", srcErr).AnErr("database_error", dbErr).Msg("Failed to close migrator")
		}
	}()

	return applyMigrations(m)
}

// applyMigrations clears a dirty state left by an interrupted run, then migrates up
func applyMigrations(m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Warn().Uint("version", version).Msg("Database is in dirty state, forcing version to clean")
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("No new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ = m.Version()
	log.Info().Uint("version", version).Msg("Migrations applied successfully")
	return nil
}

// Query executes a query that returns rows
func (c *Connection) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span, start := c.begin(ctx, sql)
	rows, err := c.pool.Query(ctx, sql, args...)
	c.finish(span, sql, start, err)
	return rows, err
}

// QueryRow executes a query that returns a single row. Scan errors are not
// visible here, so the span and metrics only cover the round trip.
func (c *Connection) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span, start := c.begin(ctx, sql)
	row := c.pool.QueryRow(ctx, sql, args...)
	c.finish(span, sql, start, nil)
	return row
}

// Exec executes a query that doesn't return rows
func (c *Connection) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span, start := c.begin(ctx, sql)
	tag, err := c.pool.Exec(ctx, sql, args...)
	c.finish(span, sql, start, err)
	return tag, err
}

func (c *Connection) begin(ctx context.Context, sql string) (context.Context, trace.Span, time.Time) {
	ctx, span := observability.StartDBSpan(ctx, extractOperation(sql), extractTableName(sql))
	return ctx, span, time.Now()
}

func (c *Connection) finish(span trace.Span, sql string, start time.Time, err error) {
	duration := time.Since(start)
	observability.EndSpan(span, err)

	if c.metrics != nil {
		c.metrics.RecordDBQuery(extractOperation(sql), extractTableName(sql), duration, err)
	}

	if duration > slowQueryThreshold {
		log.Warn().
			Dur("duration", duration).
			Str("query", truncateQuery(sql, 200)).
			Bool("slow_query", true).
			Msg("Slow query detected")
	}
}

// Health checks the health of the database connection
func (c *Connection) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	if err := c.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("unexpected health check result: %d", result)
	}

	return nil
}

// Stats returns pool statistics
func (c *Connection) Stats() *pgxpool.Stat {
	return c.pool.Stat()
}

// PoolStats adapts pool statistics for the metrics collector
func (c *Connection) PoolStats() observability.PoolStats {
	stat := c.pool.Stat()
	return observability.PoolStats{
		Total: stat.TotalConns(),
		Idle:  stat.IdleConns(),
		Max:   stat.MaxConns(),
	}
}

func truncateQuery(query string, maxLen int) string {
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "... (truncated)"
}

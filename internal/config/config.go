package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	GraphQL   GraphQLConfig   `mapstructure:"graphql"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Debug     bool            `mapstructure:"debug"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
	CORSOrigins  string        `mapstructure:"cors_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheck     time.Duration `mapstructure:"health_check_period"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RateLimitConfig controls request throttling on the GraphQL endpoint
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"` // memory or redis
	RedisURL string        `mapstructure:"redis_url"`
	Max      int           `mapstructure:"max"`
	Window   time.Duration `mapstructure:"window"`
}

// TracingConfig contains OpenTelemetry exporter settings
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// Cron spec for sampling pool statistics into gauges
	StatsSchedule string `mapstructure:"stats_schedule"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("socialgraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/socialgraph")

	v.AutomaticEnv()
	v.SetEnvPrefix("SOCIALGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("No config file found, using defaults and environment")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("Config file loaded")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile() error {
	for _, location := range []string{".env", ".env.local"} {
		if _, err := os.Stat(location); err == nil {
			if err := godotenv.Load(location); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", location, err)
			}
			log.Info().Str("file", location).Msg(".env file loaded")
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":4000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.body_limit", 1024*1024)
	v.SetDefault("server.cors_origins", "*")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "socialgraph")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "1m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("graphql.enabled", true)
	v.SetDefault("graphql.introspection", true)
	v.SetDefault("graphql.max_complexity", 0)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.service_name", "socialgraph")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.stats_schedule", "@every 15s")

	v.SetDefault("debug", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration error: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database configuration error: %w", err)
	}

	if err := c.GraphQL.Validate(); err != nil {
		return fmt.Errorf("graphql configuration error: %w", err)
	}

	if c.RateLimit.Enabled {
		if err := c.RateLimit.Validate(); err != nil {
			return fmt.Errorf("rate_limit configuration error: %w", err)
		}
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	return nil
}

// Validate validates server configuration
func (sc *ServerConfig) Validate() error {
	if sc.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if sc.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive, got: %v", sc.ReadTimeout)
	}
	if sc.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive, got: %v", sc.WriteTimeout)
	}
	if sc.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got: %v", sc.IdleTimeout)
	}
	if sc.BodyLimit <= 0 {
		return fmt.Errorf("body_limit must be positive, got: %d", sc.BodyLimit)
	}
	return nil
}

// Validate validates database configuration
func (dc *DatabaseConfig) Validate() error {
	if dc.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if dc.Port < 1 || dc.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535, got: %d", dc.Port)
	}
	if dc.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if dc.MaxConnections < dc.MinConnections {
		return fmt.Errorf("max_connections must be greater than or equal to min_connections")
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection URL. Credentials and
// the database name are escaped, so they may contain '@', '/' or ':'.
func (dc *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port)),
		Path:     "/" + dc.Database,
		RawQuery: url.Values{"sslmode": []string{dc.SSLMode}}.Encode(),
	}
	switch {
	case dc.Password != "":
		u.User = url.UserPassword(dc.User, dc.Password)
	case dc.User != "":
		u.User = url.User(dc.User)
	}
	return u.String()
}

// Validate validates rate limit configuration
func (rc *RateLimitConfig) Validate() error {
	switch rc.Backend {
	case "memory":
	case "redis":
		if rc.RedisURL == "" {
			return fmt.Errorf("redis_url is required when backend is redis")
		}
	default:
		return fmt.Errorf("rate limit backend must be 'memory' or 'redis', got: %s", rc.Backend)
	}
	if rc.Max < 1 {
		return fmt.Errorf("rate limit max must be at least 1, got: %d", rc.Max)
	}
	if rc.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got: %v", rc.Window)
	}
	return nil
}

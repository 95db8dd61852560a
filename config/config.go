// Package config loads the callerid service configuration from the
// environment, with an optional .env file for local development.
//
// Precedence: defaults < .env file < process environment.
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service
type Config struct {
	Service   ServiceConfig
	Tracing   TracingConfig   // OpenTelemetry export
	Profiling ProfilingConfig // Pyroscope continuous profiling
	Logging   LoggingConfig   // zap
	Metrics   MetricsConfig   // Prometheus
	Database  DatabaseConfig  // PostgreSQL directory store
	Auth      AuthConfig      // JWT issuing/verification
	RateLimit RateLimitConfig // Per-client request throttling
	Kafka     KafkaConfig     // Spam report event stream (optional)

	ShutdownTimeout time.Duration // SHUTDOWN_TIMEOUT (default: 10s, max: 60s)
	// ReadinessDrainDelay is how long /ready reports shutting_down before the
	// HTTP server stops, so routing can move traffic away first.
	// READINESS_DRAIN_DELAY (default: 5s, max: 30s)
	ReadinessDrainDelay time.Duration
}

type ServiceConfig struct {
	Name    string // SERVICE_NAME (default: "callerid")
	Port    string // PORT (default: "8080")
	Version string // VERSION (default: "dev")
	Env     string // ENV: development, staging or production (default: "development")
}

type TracingConfig struct {
	Enabled            bool    // TRACING_ENABLED (default: true)
	Endpoint           string  // OTEL_COLLECTOR_ENDPOINT, OTLP/HTTP host:port
	SampleRate         float64 // OTEL_SAMPLE_RATE, 0.0-1.0 (default: 0.1)
	ServiceName        string  // defaults to SERVICE_NAME
	MaxExportBatchSize int     // OTEL_BATCH_SIZE (default: 512)
}

type ProfilingConfig struct {
	Enabled     bool   // PROFILING_ENABLED (default: true)
	Endpoint    string // PYROSCOPE_ENDPOINT
	ServiceName string // defaults to SERVICE_NAME
}

type LoggingConfig struct {
	Level  string // LOG_LEVEL: debug, info, warn, error (default: "info")
	Format string // LOG_FORMAT: json or console (default: "json")
}

type MetricsConfig struct {
	Enabled bool   // METRICS_ENABLED (default: true)
	Path    string // METRICS_PATH (default: "/metrics")
}

// DatabaseConfig is read from discrete DB_* variables rather than a URL.
// An empty Host selects the in-memory store, which only development allows.
type DatabaseConfig struct {
	Host           string // DB_HOST
	Port           string // DB_PORT (default: "5432")
	Name           string // DB_NAME
	User           string // DB_USER
	Password       string // DB_PASSWORD
	SSLMode        string // DB_SSLMODE (default: "disable")
	MaxConnections int    // DB_POOL_MAX_CONNECTIONS (default: 25)
	MigrateOnStart bool   // DB_MIGRATE_ON_START, apply embedded migrations (default: true)
}

// AuthConfig defines token settings.
// Access tokens are short-lived; refresh tokens are rotated on every refresh.
type AuthConfig struct {
	JWTSecret       string        // JWT_SECRET (required)
	AccessTokenTTL  time.Duration // ACCESS_TOKEN_TTL (default: 30m)
	RefreshTokenTTL time.Duration // REFRESH_TOKEN_TTL (default: 168h)
}

// RateLimitConfig defines request budgets
type RateLimitConfig struct {
	Enabled       bool // RATE_LIMIT_ENABLED (default: true)
	AnonPerMinute int  // RATE_LIMIT_ANON_PER_MINUTE, per client IP (default: 100)
	UserPerMinute int  // RATE_LIMIT_USER_PER_MINUTE, per account (default: 1000)
	LoginPerHour  int  // RATE_LIMIT_LOGIN_PER_HOUR, per client IP (default: 5)
}

// KafkaConfig defines the spam report event producer.
// Publishing is disabled when Broker is empty.
type KafkaConfig struct {
	Broker   string // KAFKA_BROKER
	Topic    string // KAFKA_TOPIC (default: "spam.reported")
	Username string // KAFKA_USERNAME, enables SASL/PLAIN
	Password string // KAFKA_PASSWORD
	TLS      bool   // KAFKA_TLS (default: false)
}

// Enabled reports whether a broker is configured
func (k KafkaConfig) Enabled() bool {
	return k.Broker != ""
}

// BuildDSN constructs the PostgreSQL connection string
func (c *DatabaseConfig) BuildDSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Load reads configuration from the environment, applying defaults.
// A missing .env file is ignored.
func Load() *Config {
	_ = godotenv.Load()

	name := getEnv("SERVICE_NAME", "callerid")
	return &Config{
		Service: ServiceConfig{
			Name:    name,
			Port:    getEnv("PORT", "8080"),
			Version: getEnv("VERSION", "dev"),
			Env:     getEnv("ENV", "development"),
		},
		Tracing: TracingConfig{
			Enabled:            getEnvBool("TRACING_ENABLED", true),
			Endpoint:           getEnv("OTEL_COLLECTOR_ENDPOINT", "otel-collector-opentelemetry-collector.monitoring.svc.cluster.local:4318"),
			SampleRate:         getEnvParsed("OTEL_SAMPLE_RATE", 0.1, parseFloat),
			ServiceName:        name,
			MaxExportBatchSize: getEnvParsed("OTEL_BATCH_SIZE", 512, strconv.Atoi),
		},
		Profiling: ProfilingConfig{
			Enabled:     getEnvBool("PROFILING_ENABLED", true),
			Endpoint:    getEnv("PYROSCOPE_ENDPOINT", "http://pyroscope.monitoring.svc.cluster.local:4040"),
			ServiceName: name,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", ""),
			Port:           getEnv("DB_PORT", "5432"),
			Name:           getEnv("DB_NAME", ""),
			User:           getEnv("DB_USER", ""),
			Password:       getEnv("DB_PASSWORD", ""),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvParsed("DB_POOL_MAX_CONNECTIONS", 25, strconv.Atoi),
			MigrateOnStart: getEnvBool("DB_MIGRATE_ON_START", true),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			AccessTokenTTL:  getEnvParsed("ACCESS_TOKEN_TTL", 30*time.Minute, time.ParseDuration),
			RefreshTokenTTL: getEnvParsed("REFRESH_TOKEN_TTL", 7*24*time.Hour, time.ParseDuration),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			AnonPerMinute: getEnvParsed("RATE_LIMIT_ANON_PER_MINUTE", 100, strconv.Atoi),
			UserPerMinute: getEnvParsed("RATE_LIMIT_USER_PER_MINUTE", 1000, strconv.Atoi),
			LoginPerHour:  getEnvParsed("RATE_LIMIT_LOGIN_PER_HOUR", 5, strconv.Atoi),
		},
		Kafka: KafkaConfig{
			Broker:   getEnv("KAFKA_BROKER", ""),
			Topic:    getEnv("KAFKA_TOPIC", "spam.reported"),
			Username: getEnv("KAFKA_USERNAME", ""),
			Password: getEnv("KAFKA_PASSWORD", ""),
			TLS:      getEnvBool("KAFKA_TLS", false),
		},
		ShutdownTimeout:     getEnvBoundedDuration("SHUTDOWN_TIMEOUT", 10*time.Second, time.Minute),
		ReadinessDrainDelay: getEnvBoundedDuration("READINESS_DRAIN_DELAY", 5*time.Second, 30*time.Second),
	}
}

// Validate reports every invalid setting at once so a bad deployment can be
// fixed in one pass.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	// Service
	check(c.Service.Name != "" && c.Service.Name != "unknown", "SERVICE_NAME is required")
	_, portErr := strconv.Atoi(c.Service.Port)
	check(portErr == nil, "PORT must be a valid number, got: %q", c.Service.Port)
	envs := []string{"development", "dev", "staging", "stage", "production", "prod"}
	check(contains(envs, c.Service.Env), "ENV must be one of %v, got: %s", envs, c.Service.Env)

	// Observability
	if c.Tracing.Enabled {
		check(c.Tracing.Endpoint != "", "OTEL_COLLECTOR_ENDPOINT is required when tracing is enabled")
		check(c.Tracing.SampleRate >= 0 && c.Tracing.SampleRate <= 1,
			"OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got: %.2f", c.Tracing.SampleRate)
	}
	if c.Profiling.Enabled {
		check(c.Profiling.Endpoint != "", "PYROSCOPE_ENDPOINT is required when profiling is enabled")
	}
	levels := []string{"debug", "info", "warn", "error"}
	check(contains(levels, c.Logging.Level), "LOG_LEVEL must be one of %v, got: %s", levels, c.Logging.Level)
	formats := []string{"json", "console"}
	check(contains(formats, c.Logging.Format), "LOG_FORMAT must be one of %v, got: %s", formats, c.Logging.Format)

	// Store
	if c.Database.Host != "" {
		check(c.Database.Name != "", "DB_NAME is required when DB_HOST is set")
		check(c.Database.User != "", "DB_USER is required when DB_HOST is set")
		check(c.Database.Password != "", "DB_PASSWORD is required when DB_HOST is set")
		_, dbPortErr := strconv.Atoi(c.Database.Port)
		check(dbPortErr == nil, "DB_PORT must be a valid number, got: %q", c.Database.Port)
	}
	check(!c.IsProduction() || c.Database.Host != "", "DB_HOST is required in production")

	// Auth
	switch {
	case c.Auth.JWTSecret == "":
		check(false, "JWT_SECRET is required")
	case c.IsProduction():
		check(len(c.Auth.JWTSecret) >= 32, "JWT_SECRET must be at least 32 characters in production")
	}
	check(c.Auth.AccessTokenTTL > 0, "ACCESS_TOKEN_TTL must be a positive duration")
	check(c.Auth.RefreshTokenTTL >= c.Auth.AccessTokenTTL, "REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL")

	if c.RateLimit.Enabled {
		check(c.RateLimit.AnonPerMinute > 0 && c.RateLimit.UserPerMinute > 0 && c.RateLimit.LoginPerHour > 0,
			"RATE_LIMIT_* budgets must be positive when rate limiting is enabled")
	}
	check(!c.Kafka.Enabled() || c.Kafka.Topic != "", "KAFKA_TOPIC is required when KAFKA_BROKER is set")

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Service.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Service.Env)
	return env == "production" || env == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool accepts "true", "1" and "yes"; any other non-empty value is false
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvParsed returns defaultValue when key is unset or fails to parse
func getEnvParsed[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvBoundedDuration reads a Go duration ("10s", "1m") truncated to whole
// seconds; values outside (0, max] fall back to the default.
func getEnvBoundedDuration(key string, defaultValue, max time.Duration) time.Duration {
	d := getEnvParsed(key, defaultValue, time.ParseDuration).Truncate(time.Second)
	if d <= 0 || d > max {
		return defaultValue
	}
	return d
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}

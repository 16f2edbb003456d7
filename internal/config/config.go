package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the TV-Planner application.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	ClickHouse  ClickHouseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Recommender RecommenderConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
	Migrate  bool
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ClickHouseConfig configures the usage-event store.
type ClickHouseConfig struct {
	Enabled  bool
	Addr     string
	Database string
	User     string
	Password string
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// RecommenderConfig configures the external segment-recommendation API.
type RecommenderConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// CacheTTL controls how long recommendation responses are cached in
	// Redis. Zero disables caching even when Redis is available.
	CacheTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("TV_PLANNER_HTTP_ADDR", ":8080"),
			Env:             getEnv("TV_PLANNER_ENV", "development"),
			ShutdownTimeout: getDurationEnv("TV_PLANNER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("TV_PLANNER_DB_HOST", "localhost"),
			Port:     getIntEnv("TV_PLANNER_DB_PORT", 5432),
			User:     getEnv("TV_PLANNER_DB_USER", "tvplanner"),
			Password: getEnv("TV_PLANNER_DB_PASSWORD", "tvplanner_secret"),
			DBName:   getEnv("TV_PLANNER_DB_NAME", "tvplanner"),
			SSLMode:  getEnv("TV_PLANNER_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("TV_PLANNER_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("TV_PLANNER_DB_MIN_CONNS", 5),
			Migrate:  getBoolEnv("TV_PLANNER_DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("TV_PLANNER_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("TV_PLANNER_REDIS_PASSWORD", ""),
			DB:       getIntEnv("TV_PLANNER_REDIS_DB", 0),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  getBoolEnv("TV_PLANNER_CLICKHOUSE_ENABLED", false),
			Addr:     getEnv("TV_PLANNER_CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("TV_PLANNER_CLICKHOUSE_DB", "tvplanner"),
			User:     getEnv("TV_PLANNER_CLICKHOUSE_USER", "default"),
			Password: getEnv("TV_PLANNER_CLICKHOUSE_PASSWORD", ""),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("TV_PLANNER_AUTH_ENABLED", true),
			MasterKey: getEnv("TV_PLANNER_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("TV_PLANNER_AUTH_SKIP_PATHS", []string{"/health", "/metrics", "/api/init"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("TV_PLANNER_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("TV_PLANNER_RATE_LIMIT_RPS", 100),
			Burst:   getIntEnv("TV_PLANNER_RATE_LIMIT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("TV_PLANNER_LOG_LEVEL", "info"),
			Format: getEnv("TV_PLANNER_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("TV_PLANNER_METRICS_ENABLED", true),
			Path:    getEnv("TV_PLANNER_METRICS_PATH", "/metrics"),
		},
		Recommender: RecommenderConfig{
			BaseURL:    getEnv("TV_PLANNER_RECOMMENDER_URL", ""),
			APIKey:     getEnv("TV_PLANNER_RECOMMENDER_API_KEY", ""),
			Timeout:    getDurationEnv("TV_PLANNER_RECOMMENDER_TIMEOUT", 30*time.Second),
			MaxRetries: getIntEnv("TV_PLANNER_RECOMMENDER_MAX_RETRIES", 3),
			CacheTTL:   getDurationEnv("TV_PLANNER_RECOMMENDER_CACHE_TTL", 6*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("TV_PLANNER_API_KEY_MASTER is required when auth is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}

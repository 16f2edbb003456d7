package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TV_PLANNER_API_KEY_MASTER", "test-master-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.True(t, cfg.Database.Migrate)
	assert.False(t, cfg.ClickHouse.Enabled)
	assert.Equal(t, []string{"/health", "/metrics", "/api/init"}, cfg.Auth.SkipPaths)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 6*time.Hour, cfg.Recommender.CacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TV_PLANNER_API_KEY_MASTER", "test-master-key")
	t.Setenv("TV_PLANNER_HTTP_ADDR", ":9090")
	t.Setenv("TV_PLANNER_ENV", "production")
	t.Setenv("TV_PLANNER_DB_PORT", "15432")
	t.Setenv("TV_PLANNER_RATE_LIMIT_RPS", "250.5")
	t.Setenv("TV_PLANNER_AUTH_SKIP_PATHS", "/health,/custom")
	t.Setenv("TV_PLANNER_RECOMMENDER_TIMEOUT", "10s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 15432, cfg.Database.Port)
	assert.Equal(t, 250.5, cfg.RateLimit.RPS)
	assert.Equal(t, []string{"/health", "/custom"}, cfg.Auth.SkipPaths)
	assert.Equal(t, 10*time.Second, cfg.Recommender.Timeout)
}

func TestValidateRequiresMasterKey(t *testing.T) {
	t.Setenv("TV_PLANNER_API_KEY_MASTER", "")
	t.Setenv("TV_PLANNER_AUTH_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)

	// Disabling auth lifts the requirement.
	t.Setenv("TV_PLANNER_AUTH_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Auth.Enabled)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "tvplanner", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/tvplanner?sslmode=disable", d.DSN())
}

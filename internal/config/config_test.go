package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.AuthPollInterval)
	assert.Equal(t, 60*time.Second, cfg.AuthPollTimeout)
	assert.Equal(t, 4.6, cfg.DefaultAvgEngagement)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPSTREAM_API_URL", "http://api:8000")
	t.Setenv("UPSTREAM_TOKEN", "tok")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("UPSTREAM_RETRIES", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a, http://b ,")
	t.Setenv("AUTH_POLL_TIMEOUT", "90s")
	t.Setenv("VIEW_IDLE_TTL", "bogus")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://api:8000", cfg.UpstreamURL)
	assert.Equal(t, "tok", cfg.UpstreamToken)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0, cfg.UpstreamRetries)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORSOrigins)
	assert.Equal(t, 90*time.Second, cfg.AuthPollTimeout)
	assert.Equal(t, 30*time.Minute, cfg.ViewIdleTTL, "bad duration keeps default")
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "socialdash.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
port: "7000"
log_level: warn
upstream:
  url: http://file:8000
  timeout_seconds: 3
  retries: 4
cors:
  allowed_origins: [http://dash.local]
auth:
  poll_interval: 500ms
dashboard:
  idle_ttl: 5m
  weekly_posts_limit: 50
`), 0o600))
	t.Setenv("CONFIG_FILE", p)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Port, "env wins over file")
	assert.Equal(t, "http://file:8000", cfg.UpstreamURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 4, cfg.UpstreamRetries)
	assert.Equal(t, []string{"http://dash.local"}, cfg.CORSOrigins)
	assert.Equal(t, 500*time.Millisecond, cfg.AuthPollInterval)
	assert.Equal(t, 5*time.Minute, cfg.ViewIdleTTL)
	assert.Equal(t, 50, cfg.WeeklyPostsLimit)
	assert.Equal(t, 100, cfg.AllPostsLimit)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoadRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("auth:\n  poll_timeout: soon\n"), 0o600))
	t.Setenv("CONFIG_FILE", p)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.poll_timeout")

	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

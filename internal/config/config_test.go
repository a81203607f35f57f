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

// clearEnv unsets every variable Load reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "TRANSITLAND_URL", "TRANSITLAND_API_KEY", "TRANSSEE_URL",
		"TRANSSEE_USERID", "TIMEZONE", "STORE_PATH", "NATS_URL", "NATS_SUBJECT_PREFIX",
		"LOG_LEVEL", "SEARCH_RADIUS_M", "STOP_LIMIT", "HTTP_RETRIES", "STOP_CACHE_SIZE",
		"PORT", "HTTP_TIMEOUT", "STOP_CACHE_TTL", "REFRESH_INTERVAL", "DROP_STALE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.RadiusMeters)
	assert.Equal(t, 9, cfg.StopLimit)
	assert.True(t, cfg.DropStale)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "America/Toronto", cfg.Location.String())
	assert.Empty(t, cfg.TransSeeUserID)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSITLAND_API_KEY", "tl-key")
	t.Setenv("TRANSSEE_USERID", "ts-user")
	t.Setenv("SEARCH_RADIUS_M", "750")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("DROP_STALE", "false")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tl-key", cfg.TransitlandAPIKey)
	assert.Equal(t, "ts-user", cfg.TransSeeUserID)
	assert.Equal(t, 750, cfg.RadiusMeters)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.DropStale)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
transitland_api_key: from-file
radius_meters: 300
stop_limit: 5
stop_cache_ttl: 2m
nats_url: nats://127.0.0.1:4222
refresh_interval: 30s
`), 0o600))

	t.Setenv("STOP_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.TransitlandAPIKey)
	assert.Equal(t, 300, cfg.RadiusMeters)
	assert.Equal(t, 7, cfg.StopLimit, "environment overrides the file")
	assert.Equal(t, 2*time.Minute, cfg.StopCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
	assert.Equal(t, "https://transit.land/api/v2/rest", cfg.TransitlandURL, "unset keys keep defaults")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "radius out of range", env: map[string]string{"SEARCH_RADIUS_M": "0"}},
		{name: "radius not a number", env: map[string]string{"SEARCH_RADIUS_M": "far"}},
		{name: "bad duration", env: map[string]string{"HTTP_TIMEOUT": "soon"}},
		{name: "timeout too short", env: map[string]string{"HTTP_TIMEOUT": "10ms"}},
		{name: "bad timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad url", env: map[string]string{"TRANSITLAND_URL": "not a url"}},
		{name: "bad bool", env: map[string]string{"DROP_STALE": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

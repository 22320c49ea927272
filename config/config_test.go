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

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"DATABASE_URL":   "postgres://localhost/tournaments",
		"JWT_SECRET_KEY": "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 50.0, cfg.DefaultRadiusKm)
	assert.True(t, cfg.AutoApprove)
	assert.Equal(t, 24*time.Hour, cfg.GeoCacheTTL)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.R2Enabled())
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"SERVER_PORT":                 "9000",
		"STORE_DRIVER":                "MEMORY",
		"JWT_SECRET_KEY":              "secret",
		"TIMEZONE":                    "Europe/Warsaw",
		"DEFAULT_RADIUS_KM":           "25.5",
		"AUTO_APPROVE":                "false",
		"GEO_CACHE_TTL":               "90m",
		"LOG_LEVEL":                   "debug",
		"CORS_ALLOWED_ORIGINS":        "https://a.example, https://b.example,",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4317",
		"TRACE_SAMPLE_RATIO":          "0.25",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "Europe/Warsaw", cfg.Location.String())
	assert.Equal(t, 25.5, cfg.DefaultRadiusKm)
	assert.False(t, cfg.AutoApprove)
	assert.Equal(t, 90*time.Minute, cfg.GeoCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "http://collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 0.25, cfg.TraceSampleRatio)
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_TOMLFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_port = 7000
store_driver = "memory"
jwt_secret_key = "from-file"
geo_cache_ttl = "1h"
cors_allowed_origins = ["https://file.example"]
`), 0o600))

	cfg, err := load(env(map[string]string{
		"CONFIG_FILE":    path,
		"JWT_SECRET_KEY": "from-env",
	}))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.ServerPort)
	assert.Equal(t, "from-env", cfg.JWTSecretKey)
	assert.Equal(t, time.Hour, cfg.GeoCacheTTL)
	assert.Equal(t, []string{"https://file.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	base := func(extra map[string]string) map[string]string {
		m := map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET_KEY": "secret"}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	tests := map[string]map[string]string{
		"missing database url":  {"STORE_DRIVER": "postgres", "JWT_SECRET_KEY": "s"},
		"missing jwt secret":    {"STORE_DRIVER": "memory"},
		"unknown driver":        base(map[string]string{"STORE_DRIVER": "mysql"}),
		"port out of range":     base(map[string]string{"SERVER_PORT": "70000"}),
		"port not a number":     base(map[string]string{"SERVER_PORT": "http"}),
		"partial r2":            base(map[string]string{"R2_ACCOUNT_ID": "acc"}),
		"ipapi without key":     base(map[string]string{"IPAPI_URL": "https://api.ipgeolocation.io"}),
		"bad timezone":          base(map[string]string{"TIMEZONE": "Mars/Olympus"}),
		"bad radius":            base(map[string]string{"DEFAULT_RADIUS_KM": "0"}),
		"bad duration":          base(map[string]string{"GEO_CACHE_TTL": "soon"}),
		"bad log level":         base(map[string]string{"LOG_LEVEL": "loud"}),
		"bad auto approve":      base(map[string]string{"AUTO_APPROVE": "maybe"}),
		"missing config file":   base(map[string]string{"CONFIG_FILE": "/nonexistent/config.toml"}),
		"non-positive cache sz": base(map[string]string{"GEO_CACHE_SIZE": "0"}),
		"sample ratio above 1":  base(map[string]string{"TRACE_SAMPLE_RATIO": "1.5"}),
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := load(env(vars))
			assert.Error(t, err)
		})
	}
}

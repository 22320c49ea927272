package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds every runtime setting. Values come from an optional TOML file
// (CONFIG_FILE), then the environment, which also picks up a local .env.
type Config struct {
	ServerPort  int    `toml:"server_port"`
	DatabaseURL string `toml:"database_url"`
	StoreDriver string `toml:"store_driver"`

	JWTSecretKey         string `toml:"jwt_secret_key"`
	WebhookSigningSecret string `toml:"webhook_signing_secret"`

	R2AccountID       string `toml:"r2_account_id"`
	R2AccessKeyID     string `toml:"r2_access_key_id"`
	R2SecretAccessKey string `toml:"r2_secret_access_key"`
	R2BucketName      string `toml:"r2_bucket_name"`
	R2PublicBaseURL   string `toml:"r2_public_base_url"`
	R2Endpoint        string `toml:"r2_endpoint"`

	IPAPIURL     string        `toml:"ipapi_url"`
	IPAPIKey     string        `toml:"ipapi_key"`
	IPAPIRPS     float64       `toml:"ipapi_rps"`
	GeoCacheSize int           `toml:"geo_cache_size"`
	GeoCacheTTL  time.Duration `toml:"geo_cache_ttl"`

	Timezone        string  `toml:"timezone"`
	DefaultRadiusKm float64 `toml:"default_radius_km"`
	AutoApprove     bool    `toml:"auto_approve"`

	LogLevel           string   `toml:"log_level"`
	OTLPEndpoint       string   `toml:"otlp_endpoint"`
	TraceSampleRatio   float64  `toml:"trace_sample_ratio"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`

	// Location is Timezone resolved by Load.
	Location *time.Location `toml:"-"`
}

func defaults() Config {
	return Config{
		ServerPort:       8080,
		StoreDriver:      StoreDriverPostgres,
		IPAPIRPS:         5,
		GeoCacheSize:     10_000,
		GeoCacheTTL:      24 * time.Hour,
		Timezone:         "UTC",
		DefaultRadiusKm:  50,
		AutoApprove:      true,
		LogLevel:         "info",
		TraceSampleRatio: 1,
	}
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := defaults()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	num("SERVER_PORT", &cfg.ServerPort)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("STORE_DRIVER", &cfg.StoreDriver)
	str("JWT_SECRET_KEY", &cfg.JWTSecretKey)
	str("WEBHOOK_SIGNING_SECRET", &cfg.WebhookSigningSecret)
	str("R2_ACCOUNT_ID", &cfg.R2AccountID)
	str("R2_ACCESS_KEY_ID", &cfg.R2AccessKeyID)
	str("R2_SECRET_ACCESS_KEY", &cfg.R2SecretAccessKey)
	str("R2_BUCKET_NAME", &cfg.R2BucketName)
	str("R2_PUBLIC_BASE_URL", &cfg.R2PublicBaseURL)
	str("R2_ENDPOINT", &cfg.R2Endpoint)
	str("IPAPI_URL", &cfg.IPAPIURL)
	str("IPAPI_KEY", &cfg.IPAPIKey)
	float("IPAPI_RPS", &cfg.IPAPIRPS)
	num("GEO_CACHE_SIZE", &cfg.GeoCacheSize)
	duration("GEO_CACHE_TTL", &cfg.GeoCacheTTL)
	str("TIMEZONE", &cfg.Timezone)
	float("DEFAULT_RADIUS_KM", &cfg.DefaultRadiusKm)
	boolean("AUTO_APPROVE", &cfg.AutoApprove)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTLPEndpoint)
	float("TRACE_SAMPLE_RATIO", &cfg.TraceSampleRatio)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}

	c.StoreDriver = strings.ToLower(c.StoreDriver)
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER is postgres"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}

	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}

	r2 := []string{c.R2AccountID, c.R2AccessKeyID, c.R2SecretAccessKey, c.R2BucketName, c.R2PublicBaseURL}
	set := 0
	for _, v := range r2 {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(r2) {
		errs = append(errs, errors.New("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME and R2_PUBLIC_BASE_URL must be set together"))
	}

	if c.IPAPIURL != "" && c.IPAPIKey == "" {
		errs = append(errs, errors.New("IPAPI_KEY is required when IPAPI_URL is set"))
	}
	if c.IPAPIRPS < 0 {
		errs = append(errs, errors.New("IPAPI_RPS must not be negative"))
	}
	if c.GeoCacheSize <= 0 {
		errs = append(errs, errors.New("GEO_CACHE_SIZE must be positive"))
	}
	if c.GeoCacheTTL <= 0 {
		errs = append(errs, errors.New("GEO_CACHE_TTL must be positive"))
	}
	if c.DefaultRadiusKm <= 0 {
		errs = append(errs, errors.New("DEFAULT_RADIUS_KM must be positive"))
	}

	if c.TraceSampleRatio <= 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, errors.New("TRACE_SAMPLE_RATIO must be within (0, 1]"))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err))
	}
	c.Location = loc

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// R2Enabled reports whether object storage credentials are configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != ""
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

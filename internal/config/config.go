// Package config loads service configuration.
//
// Values come from built-in defaults, then an optional YAML file, then the
// environment (a .env file is loaded first when present). Command-line flags
// in cmd/ override the result.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the departures service
type Config struct {
	TransitlandURL    string `yaml:"transitland_url" validate:"required,url"`
	TransitlandAPIKey string `yaml:"transitland_api_key"`
	TransSeeURL       string `yaml:"transsee_url" validate:"required,url"`
	// TransSeeUserID enables TransSee as the preferred departure source
	TransSeeUserID string `yaml:"transsee_user_id"`

	Timezone     string `yaml:"timezone" validate:"required"`
	RadiusMeters int    `yaml:"radius_meters" validate:"min=1,max=5000"`
	StopLimit    int    `yaml:"stop_limit" validate:"min=1,max=50"`
	DropStale    bool   `yaml:"drop_stale"`

	HTTPTimeout time.Duration `yaml:"http_timeout" validate:"min=1s"`
	Retries     int           `yaml:"retries" validate:"min=0,max=10"`

	StopCacheSize int           `yaml:"stop_cache_size" validate:"min=0"`
	StopCacheTTL  time.Duration `yaml:"stop_cache_ttl" validate:"min=0"`
	// StorePath is a SQLite file for saved stop lists; empty keeps them in memory
	StorePath string `yaml:"store_path"`

	NATSURL           string `yaml:"nats_url" validate:"omitempty,url"`
	NATSSubjectPrefix string `yaml:"nats_subject_prefix" validate:"required"`

	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	// RefreshInterval re-sends departures to known devices; zero disables it
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"min=0"`

	Location *time.Location `yaml:"-" validate:"-"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		TransitlandURL:    "https://transit.land/api/v2/rest",
		TransSeeURL:       "http://transsee.ca/publicJSONFeed",
		Timezone:          "America/Toronto",
		RadiusMeters:      500,
		StopLimit:         9,
		DropStale:         true,
		HTTPTimeout:       15 * time.Second,
		Retries:           2,
		StopCacheSize:     256,
		StopCacheTTL:      10 * time.Minute,
		NATSSubjectPrefix: "departures",
		Port:              8080,
		LogLevel:          "info",
	}
}

// Load builds the configuration. path names an optional YAML file; when
// empty, CONFIG_FILE is consulted.
func Load(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env", "error", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and resolves the timezone
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.Location = loc
	return nil
}

// SlogLevel returns the slog level named by LogLevel
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func applyEnv(cfg *Config) error {
	setString(&cfg.TransitlandURL, "TRANSITLAND_URL")
	setString(&cfg.TransitlandAPIKey, "TRANSITLAND_API_KEY")
	setString(&cfg.TransSeeURL, "TRANSSEE_URL")
	setString(&cfg.TransSeeUserID, "TRANSSEE_USERID")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.StorePath, "STORE_PATH")
	setString(&cfg.NATSURL, "NATS_URL")
	setString(&cfg.NATSSubjectPrefix, "NATS_SUBJECT_PREFIX")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.RadiusMeters, "SEARCH_RADIUS_M"},
		{&cfg.StopLimit, "STOP_LIMIT"},
		{&cfg.Retries, "HTTP_RETRIES"},
		{&cfg.StopCacheSize, "STOP_CACHE_SIZE"},
		{&cfg.Port, "PORT"},
	}
	for _, v := range ints {
		if err := setInt(v.dst, v.key); err != nil {
			return err
		}
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.HTTPTimeout, "HTTP_TIMEOUT"},
		{&cfg.StopCacheTTL, "STOP_CACHE_TTL"},
		{&cfg.RefreshInterval, "REFRESH_INTERVAL"},
	}
	for _, v := range durations {
		if err := setDuration(v.dst, v.key); err != nil {
			return err
		}
	}

	if v := os.Getenv("DROP_STALE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DROP_STALE: %q", v)
		}
		cfg.DropStale = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = d
	return nil
}

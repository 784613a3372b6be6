// Package config loads the Merit service configuration from TOML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/merit/internal/generation"
	"github.com/JaimeStill/merit/pkg/database"
	"github.com/JaimeStill/merit/pkg/events"
	"github.com/JaimeStill/merit/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMeritEnv             = "MERIT_ENV"
	EnvMeritShutdownTimeout = "MERIT_SHUTDOWN_TIMEOUT"
	EnvMeritVersion         = "MERIT_VERSION"
)

var serverEnv = &ServerEnv{
	Host:              "MERIT_SERVER_HOST",
	Port:              "MERIT_SERVER_PORT",
	ReadTimeout:       "MERIT_SERVER_READ_TIMEOUT",
	ReadHeaderTimeout: "MERIT_SERVER_READ_HEADER_TIMEOUT",
	WriteTimeout:      "MERIT_SERVER_WRITE_TIMEOUT",
	ShutdownTimeout:   "MERIT_SERVER_SHUTDOWN_TIMEOUT",
}

var databaseEnv = &database.Env{
	Host:            "MERIT_DB_HOST",
	Port:            "MERIT_DB_PORT",
	Name:            "MERIT_DB_NAME",
	User:            "MERIT_DB_USER",
	Password:        "MERIT_DB_PASSWORD",
	SSLMode:         "MERIT_DB_SSL_MODE",
	MaxOpenConns:    "MERIT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "MERIT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "MERIT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "MERIT_DB_CONN_TIMEOUT",
	ApplicationName: "MERIT_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	ContainerName:    "MERIT_STORAGE_CONTAINER_NAME",
	ConnectionString: "MERIT_STORAGE_CONNECTION_STRING",
	ServiceURL:       "MERIT_STORAGE_SERVICE_URL",
}

var eventsEnv = &events.Env{
	Brokers:      "MERIT_EVENTS_BROKERS",
	Topic:        "MERIT_EVENTS_TOPIC",
	BatchTimeout: "MERIT_EVENTS_BATCH_TIMEOUT",
	WriteTimeout: "MERIT_EVENTS_WRITE_TIMEOUT",
}

var scoringEnv = &generation.Env{
	Workers:            "MERIT_SCORING_WORKERS",
	Timezone:           "MERIT_SCORING_TIMEZONE",
	InsufficientData:   "MERIT_SCORING_INSUFFICIENT_DATA",
	EngagementBaseline: "MERIT_SCORING_ENGAGEMENT_BASELINE",
	StrictBarrier:      "MERIT_SCORING_STRICT_BARRIER",
	CalculationMethod:  "MERIT_SCORING_CALCULATION_METHOD",
}

// Config is the root configuration for the Merit service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	API             APIConfig         `toml:"api"`
	Scoring         generation.Config `toml:"scoring"`
	Events          events.Config     `toml:"events"`
	Metrics         MetricsConfig     `toml:"metrics"`
	Log             LogConfig         `toml:"log"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the MERIT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvMeritEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Parse decodes TOML data into a Config and finalizes it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return &cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Scoring.Merge(&overlay.Scoring)
	c.Events.Merge(&overlay.Events)
	c.Metrics.Merge(&overlay.Metrics)
	c.Log.Merge(&overlay.Log)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(serverEnv); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if c.Env() != "production" {
		c.Scoring.StrictBarrier = true
	}
	if err := c.Scoring.Finalize(scoringEnv); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Metrics.Finalize(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvMeritShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvMeritVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvMeritEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLogFormat        = "MERIT_LOG_FORMAT"
	EnvLogLevel         = "MERIT_LOG_LEVEL"
	EnvMetricsNamespace = "MERIT_METRICS_NAMESPACE"
	EnvMetricsPath      = "MERIT_METRICS_PATH"
)

// LogConfig selects the log handler format and minimum level.
type LogConfig struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// SlogLevel returns Level as a slog.Level.
func (c *LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LogConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LogConfig) Merge(overlay *LogConfig) {
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
}

func (c *LogConfig) loadDefaults() {
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c *LogConfig) loadEnv() {
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
}

func (c *LogConfig) validate() error {
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: want text or json", c.Format)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	return nil
}

// MetricsConfig names the Prometheus namespace and the exposition path.
type MetricsConfig struct {
	Namespace string `toml:"namespace"`
	Path      string `toml:"path"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *MetricsConfig) Finalize() error {
	if c.Namespace == "" {
		c.Namespace = "merit"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if v := os.Getenv(EnvMetricsNamespace); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv(EnvMetricsPath); v != "" {
		c.Path = v
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must start with /: %s", c.Path)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *MetricsConfig) Merge(overlay *MetricsConfig) {
	if overlay.Namespace != "" {
		c.Namespace = overlay.Namespace
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
}

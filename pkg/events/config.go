package events

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds Kafka publisher settings. Publishing is disabled when Brokers is empty.
type Config struct {
	Brokers      []string `toml:"brokers"`
	Topic        string   `toml:"topic"`
	BatchTimeout string   `toml:"batch_timeout"`
	WriteTimeout string   `toml:"write_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Brokers      string
	Topic        string
	BatchTimeout string
	WriteTimeout string
}

// Enabled reports whether any broker is configured.
func (c *Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// BatchTimeoutDuration returns BatchTimeout as a time.Duration.
func (c *Config) BatchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BatchTimeout)
	return d
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Brokers != nil {
		c.Brokers = overlay.Brokers
	}
	if overlay.Topic != "" {
		c.Topic = overlay.Topic
	}
	if overlay.BatchTimeout != "" {
		c.BatchTimeout = overlay.BatchTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Topic == "" {
		c.Topic = "merit.scores"
	}
	if c.BatchTimeout == "" {
		c.BatchTimeout = "100ms"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Brokers != "" {
		if v := os.Getenv(env.Brokers); v != "" {
			c.Brokers = splitList(v)
		}
	}
	if env.Topic != "" {
		if v := os.Getenv(env.Topic); v != "" {
			c.Topic = v
		}
	}
	if env.BatchTimeout != "" {
		if v := os.Getenv(env.BatchTimeout); v != "" {
			c.BatchTimeout = v
		}
	}
	if env.WriteTimeout != "" {
		if v := os.Getenv(env.WriteTimeout); v != "" {
			c.WriteTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.Enabled() && c.Topic == "" {
		return fmt.Errorf("topic required when brokers are set")
	}
	if _, err := time.ParseDuration(c.BatchTimeout); err != nil {
		return fmt.Errorf("invalid batch_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.WriteTimeout); err != nil {
		return fmt.Errorf("invalid write_timeout: %w", err)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

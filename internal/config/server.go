package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// ServerEnv names the environment variables that override ServerConfig.
type ServerEnv struct {
	Host              string
	Port              string
	ReadTimeout       string
	ReadHeaderTimeout string
	WriteTimeout      string
	ShutdownTimeout   string
}

// ServerTimeouts holds the parsed server durations.
type ServerTimeouts struct {
	Read       time.Duration
	ReadHeader time.Duration
	Write      time.Duration
	Shutdown   time.Duration
}

// ServerConfig holds HTTP server parameters. Durations are Go duration
// strings; Timeouts returns them parsed once Finalize has succeeded.
// ReadHeaderTimeout defaults to ReadTimeout.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`

	timeouts ServerTimeouts
}

// Addr returns the listen address, bracketing IPv6 hosts.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeouts returns the durations parsed by Finalize.
func (c *ServerConfig) Timeouts() ServerTimeouts {
	return c.timeouts
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize(env *ServerEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	if c.ReadHeaderTimeout == "" {
		c.ReadHeaderTimeout = c.ReadTimeout
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for dst, src := range c.stringFields(overlay) {
		if *src != "" {
			*dst = *src
		}
	}
}

// stringFields pairs each string field of c with the same field of other.
func (c *ServerConfig) stringFields(other *ServerConfig) map[*string]*string {
	return map[*string]*string{
		&c.Host:              &other.Host,
		&c.ReadTimeout:       &other.ReadTimeout,
		&c.ReadHeaderTimeout: &other.ReadHeaderTimeout,
		&c.WriteTimeout:      &other.WriteTimeout,
		&c.ShutdownTimeout:   &other.ShutdownTimeout,
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "1m"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "15m"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *ServerConfig) loadEnv(env *ServerEnv) {
	overrides := map[*string]string{
		&c.Host:              env.Host,
		&c.ReadTimeout:       env.ReadTimeout,
		&c.ReadHeaderTimeout: env.ReadHeaderTimeout,
		&c.WriteTimeout:      env.WriteTimeout,
		&c.ShutdownTimeout:   env.ShutdownTimeout,
	}
	for field, key := range overrides {
		if v := os.Getenv(key); key != "" && v != "" {
			*field = v
		}
	}
	if env.Port != "" {
		if port, err := strconv.Atoi(os.Getenv(env.Port)); err == nil {
			c.Port = port
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"read_timeout", c.ReadTimeout, &c.timeouts.Read},
		{"read_header_timeout", c.ReadHeaderTimeout, &c.timeouts.ReadHeader},
		{"write_timeout", c.WriteTimeout, &c.timeouts.Write},
		{"shutdown_timeout", c.ShutdownTimeout, &c.timeouts.Shutdown},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s: must be positive", f.name)
		}
		*f.dst = d
	}
	if c.timeouts.ReadHeader > c.timeouts.Read {
		return fmt.Errorf("read_header_timeout %s exceeds read_timeout %s", c.ReadHeaderTimeout, c.ReadTimeout)
	}
	return nil
}

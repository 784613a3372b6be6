package generation

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/JaimeStill/merit/internal/scoring"
)

// Policy selects how a teacher with insufficient data is handled.
type Policy string

// Insufficient-data policies.
const (
	PolicyBaseline Policy = "baseline"
	PolicySkip     Policy = "skip"
)

// Config holds score generation settings.
type Config struct {
	Weights            scoring.Weights `toml:"weights"`
	Workers            int             `toml:"workers"`
	Timezone           string          `toml:"timezone"`
	InsufficientData   Policy          `toml:"insufficient_data"`
	EngagementBaseline *float64        `toml:"engagement_baseline"`
	StrictBarrier      bool            `toml:"strict_barrier"`
	CalculationMethod  string          `toml:"calculation_method"`

	location *time.Location
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Workers            string
	Timezone           string
	InsufficientData   string
	EngagementBaseline string
	StrictBarrier      string
	CalculationMethod  string
}

// Baseline returns the neutral engagement score, DefaultEngagementBaseline
// when none is configured.
func (c *Config) Baseline() float64 {
	if c.EngagementBaseline == nil {
		return scoring.DefaultEngagementBaseline
	}
	return *c.EngagementBaseline
}

// Location returns the time zone periods are resolved in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Weights are replaced as a
// set when the overlay carries any weight.
func (c *Config) Merge(overlay *Config) {
	if overlay.Weights != (scoring.Weights{}) {
		c.Weights = overlay.Weights
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.Timezone != "" {
		c.Timezone = overlay.Timezone
	}
	if overlay.InsufficientData != "" {
		c.InsufficientData = overlay.InsufficientData
	}
	if overlay.EngagementBaseline != nil {
		v := *overlay.EngagementBaseline
		c.EngagementBaseline = &v
	}
	if overlay.StrictBarrier {
		c.StrictBarrier = true
	}
	if overlay.CalculationMethod != "" {
		c.CalculationMethod = overlay.CalculationMethod
	}
}

func (c *Config) loadDefaults() {
	if c.Weights == (scoring.Weights{}) {
		c.Weights = scoring.DefaultWeights()
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.InsufficientData == "" {
		c.InsufficientData = PolicyBaseline
	}
	if c.CalculationMethod == "" {
		c.CalculationMethod = "weighted_average_v1"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.Timezone != "" {
		if v := os.Getenv(env.Timezone); v != "" {
			c.Timezone = v
		}
	}
	if env.InsufficientData != "" {
		if v := os.Getenv(env.InsufficientData); v != "" {
			c.InsufficientData = Policy(v)
		}
	}
	if env.EngagementBaseline != "" {
		if v := os.Getenv(env.EngagementBaseline); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.EngagementBaseline = &f
			}
		}
	}
	if env.StrictBarrier != "" {
		if v := os.Getenv(env.StrictBarrier); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.StrictBarrier = b
			}
		}
	}
	if env.CalculationMethod != "" {
		if v := os.Getenv(env.CalculationMethod); v != "" {
			c.CalculationMethod = v
		}
	}
}

func (c *Config) validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.InsufficientData {
	case PolicyBaseline, PolicySkip:
	default:
		return fmt.Errorf("unknown insufficient_data policy %q", c.InsufficientData)
	}
	if b := c.Baseline(); b < 0 || b > 100 {
		return fmt.Errorf("engagement_baseline %v outside 0..100", b)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	c.location = loc
	return nil
}

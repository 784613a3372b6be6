package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/merit/pkg/middleware"
	"github.com/JaimeStill/merit/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "MERIT_CORS_ENABLED",
	Origins:          "MERIT_CORS_ORIGINS",
	AllowedMethods:   "MERIT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "MERIT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "MERIT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "MERIT_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "MERIT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "MERIT_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("MERIT_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
}

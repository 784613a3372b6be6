package api

import (
	"github.com/JaimeStill/merit/internal/config"
	"github.com/JaimeStill/merit/internal/generation"
	"github.com/JaimeStill/merit/internal/infrastructure"
	"github.com/JaimeStill/merit/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Scoring    generation.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Events:    infra.Events,
			Metrics:   infra.Metrics,
		},
		Pagination: cfg.API.Pagination,
		Scoring:    cfg.Scoring,
	}
}

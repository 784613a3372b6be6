// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/merit/internal/config"
	"github.com/JaimeStill/merit/internal/infrastructure"
	"github.com/JaimeStill/merit/pkg/middleware"
	"github.com/JaimeStill/merit/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.Logger(runtime.Infrastructure.Logger),
		middleware.Recover(runtime.Infrastructure.Logger),
		middleware.CORS(&cfg.API.CORS),
		infra.Metrics.Instrument,
	)

	return m, nil
}

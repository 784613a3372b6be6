package api

import (
	"net/http"

	"github.com/JaimeStill/merit/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	storage := newStorageHandler(runtime.Storage, runtime.Logger)

	n := routes.Register(
		mux,
		domain.Scores.Handler().Routes(),
		domain.Generation.Handler().Routes(),
		storage.routes(),
	)
	runtime.Logger.Debug("routes registered", "count", n)
}

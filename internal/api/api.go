// Package api assembles the JSON API module: detection uploads and lookups,
// the analytics summary, and stored image downloads.
package api

import (
	"net/http"

	"github.com/JaimeStill/sightline/internal/config"
	"github.com/JaimeStill/sightline/pkg/middleware"
	"github.com/JaimeStill/sightline/pkg/module"
)

// NewModule creates the API module over domain with its middleware stack.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) *module.Module {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
	)

	return m
}

package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/sightline/internal/api"
	"github.com/JaimeStill/sightline/internal/config"
	"github.com/JaimeStill/sightline/internal/infrastructure"
	"github.com/JaimeStill/sightline/pkg/middleware"
	"github.com/JaimeStill/sightline/pkg/module"
	"github.com/JaimeStill/sightline/web/app"
)

// Modules holds the JSON API module and the HTML pages served at the root.
type Modules struct {
	API *module.Module
	App http.Handler
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiRuntime := api.NewRuntime(cfg, infra, "api")
	domain := api.NewDomain(apiRuntime)

	appRuntime := api.NewRuntime(cfg, infra, "app")
	pages, err := app.New(app.Deps{
		Detections:    domain.Detections,
		Resolver:      domain.Resolver,
		Uploads:       domain.Uploads,
		MaxUploadSize: appRuntime.MaxUploadSize,
		Logger:        appRuntime.Logger,
	}, "")
	if err != nil {
		return nil, err
	}

	appMiddleware := middleware.New()
	appMiddleware.Use(middleware.Logger(appRuntime.Logger))

	return &Modules{
		API: api.NewModule(cfg, apiRuntime, domain),
		App: appMiddleware.Apply(pages.Handler()),
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Handle("/", m.App)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	router.Handle("GET /metrics", infra.Metrics.Handler())

	return router
}

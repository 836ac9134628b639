package api

import (
	"net/http"

	"github.com/JaimeStill/sightline/internal/analytics"
	"github.com/JaimeStill/sightline/pkg/middleware"
	"github.com/JaimeStill/sightline/pkg/routes"
	"github.com/JaimeStill/sightline/pkg/storage"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	images := routes.Group{
		Prefix: "/images",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: storage.Handler(domain.Uploads, runtime.Logger)},
		},
	}

	routes.Register(
		mux,
		domain.Detections.Handler().Routes().With(middleware.MaxBytes(runtime.MaxUploadSize)),
		analytics.NewHandler(domain.Detections, domain.Resolver, runtime.Logger).Routes(),
		images,
	)
}

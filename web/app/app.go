// Package app serves the HTML pages: the upload form, the upload endpoint,
// the analytics dashboard, and the stored images it links to.
package app

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/sightline/internal/analytics"
	"github.com/JaimeStill/sightline/internal/detections"
	"github.com/JaimeStill/sightline/internal/geo"
	"github.com/JaimeStill/sightline/pkg/middleware"
	"github.com/JaimeStill/sightline/pkg/storage"
	"github.com/JaimeStill/sightline/pkg/web"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var (
	indexView     = web.ViewDef{Route: "/{$}", Template: "index.html", Title: "Upload"}
	analyticsView = web.ViewDef{Route: "/analytics", Template: "analytics.html", Title: "Analytics"}
	notFoundView  = web.ViewDef{Template: "not-found.html", Title: "Not Found"}
)

// Detections is the subset of detections.System the pages need.
type Detections interface {
	Create(ctx context.Context, cmd detections.CreateCommand) (*detections.Record, error)
	ListAll(ctx context.Context) ([]detections.Record, error)
}

// Deps collects what the pages are rendered from.
type Deps struct {
	Detections    Detections
	Resolver      *geo.Resolver
	Uploads       storage.System
	MaxUploadSize int64
	Logger        *slog.Logger
}

// App holds the parsed templates and domain collaborators.
type App struct {
	templates     *web.TemplateSet
	detections    Detections
	resolver      *geo.Resolver
	uploads       storage.System
	maxUploadSize int64
	logger        *slog.Logger
}

// New parses the embedded templates. basePath prefixes every generated URL.
func New(deps Deps, basePath string) (*App, error) {
	funcs := template.FuncMap{
		"color": func(detected string) string {
			return analytics.Color(analytics.Categorize(detected))
		},
	}

	ts, err := web.NewTemplateSet(
		templateFS,
		"templates/layouts/*.html",
		"templates/views",
		"app",
		basePath,
		funcs,
		[]web.ViewDef{indexView, analyticsView, notFoundView},
	)
	if err != nil {
		return nil, err
	}

	return &App{
		templates:     ts,
		detections:    deps.Detections,
		resolver:      deps.Resolver,
		uploads:       deps.Uploads,
		maxUploadSize: deps.MaxUploadSize,
		logger:        deps.Logger.With("module", "app"),
	}, nil
}

// Handler returns the page router with a rendered 404 for unmatched paths.
func (a *App) Handler() http.Handler {
	r := web.NewRouter()
	r.SetFallback(a.templates.ErrorHandler(notFoundView, http.StatusNotFound))

	r.HandleFunc("GET "+indexView.Route, a.templates.PageHandler(indexView))
	r.Handle("POST /upload", middleware.MaxBytes(a.maxUploadSize)(http.HandlerFunc(a.upload)))
	r.HandleFunc("GET "+analyticsView.Route, a.analytics)
	r.HandleFunc("GET /uploads/{key...}", storage.Handler(a.uploads, a.logger))
	r.HandleFunc("GET /static/", web.StaticServer(staticFS, "static", "/static/"))

	return r
}

package analytics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/sightline/internal/detections"
	"github.com/JaimeStill/sightline/internal/geo"
	"github.com/JaimeStill/sightline/pkg/handlers"
	"github.com/JaimeStill/sightline/pkg/routes"
)

// Source lists every stored detection record.
type Source interface {
	ListAll(ctx context.Context) ([]detections.Record, error)
}

// City describes the default map center.
type City struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Response is the JSON analytics payload.
type Response struct {
	Summary
	Chart []int `json:"chart"`
	City  City  `json:"city"`
}

// Handler provides the analytics API endpoint.
type Handler struct {
	source   Source
	resolver *geo.Resolver
	logger   *slog.Logger
}

// NewHandler creates a Handler reading records from source.
func NewHandler(source Source, resolver *geo.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		source:   source,
		resolver: resolver,
		logger:   logger.With("handler", "analytics"),
	}
}

// Routes returns the route group definition for analytics endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/analytics",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get},
		},
	}
}

// Get returns counts, chart data, map entries and the default city.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := Build(r.Context(), h.source, h.resolver)
	if err != nil {
		h.logger.Error("build analytics", "error", err)
		handlers.RespondError(w, h.logger, detections.MapHTTPStatus(err), errors.New(detections.Message(err)))
		return
	}

	def := h.resolver.Default()
	handlers.RespondJSON(w, http.StatusOK, Response{
		Summary: summary,
		Chart:   summary.Chart(),
		City:    City{Name: h.resolver.CityName(), Lat: def.Lat, Lon: def.Lon},
	})
}

// Build loads every record from source and aggregates it.
func Build(ctx context.Context, source Source, resolver Resolver) (Summary, error) {
	recs, err := source.ListAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Aggregate(recs, resolver), nil
}

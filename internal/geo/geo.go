// Package geo turns free-text location input into map coordinates.
package geo

import (
	"math"
	"strconv"
	"strings"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Resolver maps location text to coordinates, falling back to the default city.
type Resolver struct {
	name     string
	fallback Coordinates
	keywords []string
}

// NewResolver creates a Resolver from a finalized Config.
func NewResolver(cfg *Config) *Resolver {
	return &Resolver{
		name:     cfg.CityName,
		fallback: cfg.Default(),
		keywords: cfg.Keywords,
	}
}

// CityName returns the display name of the default city.
func (r *Resolver) CityName() string {
	return r.name
}

// Default returns the default city coordinates.
func (r *Resolver) Default() Coordinates {
	return r.fallback
}

// Resolve never fails. "lat, lon" text yields those coordinates; anything
// else, including text naming the default city, yields the default.
func (r *Resolver) Resolve(text string) Coordinates {
	text = strings.TrimSpace(text)
	if text == "" {
		return r.fallback
	}

	parts := strings.Split(text, ",")
	if len(parts) >= 2 {
		lat, latOK := parseReal(parts[0])
		lon, lonOK := parseReal(parts[1])
		if latOK && lonOK {
			return Coordinates{Lat: lat, Lon: lon}
		}
	}

	if r.mentionsCity(text) {
		return r.fallback
	}
	return r.fallback
}

func (r *Resolver) mentionsCity(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range r.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// parseReal parses a finite float. ParseFloat also accepts NaN and Inf,
// which cannot be plotted or encoded as JSON.
func parseReal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

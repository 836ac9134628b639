// Package routes declares method-scoped route groups and registers them on a
// http.ServeMux.
package routes

import (
	"net/http"

	"github.com/JaimeStill/sightline/pkg/middleware"
)

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix. Middleware wraps every route
// in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Routes     []Route
	Children   []Group
	Middleware []func(http.Handler) http.Handler
}

// With returns a copy of g with mw appended to its middleware.
func (g Group) With(mw ...func(http.Handler) http.Handler) Group {
	g.Middleware = append(append([]func(http.Handler) http.Handler{}, g.Middleware...), mw...)
	return g
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		register(mux, "", nil, group)
	}
}

func register(mux *http.ServeMux, parentPrefix string, inherited []func(http.Handler) http.Handler, group Group) {
	prefix := parentPrefix + group.Prefix
	stack := append(append([]func(http.Handler) http.Handler{}, inherited...), group.Middleware...)

	for _, route := range group.Routes {
		mux.Handle(route.Method+" "+prefix+route.Pattern, middleware.Chain(route.Handler, stack...))
	}
	for _, child := range group.Children {
		register(mux, prefix, stack, child)
	}
}

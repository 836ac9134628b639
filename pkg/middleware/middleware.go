// Package middleware provides composable http.Handler wrappers: request
// logging, CORS, and request body limits.
package middleware

import "net/http"

// System manages an ordered stack of HTTP middleware.
type System interface {
	Use(mw ...func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	mws []func(http.Handler) http.Handler
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw ...func(http.Handler) http.Handler) {
	s.mws = append(s.mws, mw...)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	return Chain(handler, s.mws...)
}

// Chain wraps handler so the first middleware is the outermost.
func Chain(handler http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

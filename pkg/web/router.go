package web

import "net/http"

// Router wraps http.ServeMux with an optional page for unmatched paths.
// Paths that match a pattern under a different method still get 405.
type Router struct {
	mux      *http.ServeMux
	fallback http.Handler
}

func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// SetFallback configures the handler for unmatched routes.
func (r *Router) SetFallback(handler http.HandlerFunc) {
	r.fallback = handler
}

func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// ServeHTTP dispatches to the mux, or to the fallback when nothing matches
// the path at all.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.fallback != nil {
		if h, pattern := r.mux.Handler(req); pattern == "" && !methodMismatch(h, req) {
			r.fallback.ServeHTTP(w, req)
			return
		}
	}
	r.mux.ServeHTTP(w, req)
}

// methodMismatch reports whether the mux answered with 405. The probe runs
// the mux's own error handler, which only writes headers into a scratch
// recorder.
func methodMismatch(h http.Handler, req *http.Request) bool {
	probe := &statusProbe{header: http.Header{}}
	h.ServeHTTP(probe, req)
	return probe.status == http.StatusMethodNotAllowed
}

type statusProbe struct {
	header http.Header
	status int
}

func (p *statusProbe) Header() http.Header { return p.header }

func (p *statusProbe) Write(b []byte) (int, error) {
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return len(b), nil
}

func (p *statusProbe) WriteHeader(status int) {
	if p.status == 0 {
		p.status = status
	}
}

package module

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/sightline/pkg/routes"
)

// Router sends each request to the module mounted on its first path
// segment. Paths owned by no module go to the fallback mux.
type Router struct {
	modules  map[string]*Module
	fallback *http.ServeMux
}

// NewRouter returns a Router with no modules mounted.
func NewRouter() *Router {
	return &Router{
		modules:  make(map[string]*Module),
		fallback: http.NewServeMux(),
	}
}

// HandleNative registers fn on the fallback mux.
func (r *Router) HandleNative(pattern string, fn http.HandlerFunc) {
	r.fallback.HandleFunc(pattern, fn)
}

// Handle registers handler on the fallback mux.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.fallback.Handle(pattern, handler)
}

// Register adds route groups to the fallback mux.
func (r *Router) Register(groups ...routes.Group) {
	routes.Register(r.fallback, groups...)
}

// Mount attaches m under its prefix, replacing any module already there.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.Serve(w, trimTrailingSlash(req))
		return
	}
	r.fallback.ServeHTTP(w, req)
}

// firstSegment returns "/api" for "/api/detections/1" and "/" for "/".
func firstSegment(p string) string {
	rest := strings.TrimPrefix(p, "/")
	if seg, _, found := strings.Cut(rest, "/"); found {
		return "/" + seg
	}
	return "/" + rest
}

func trimTrailingSlash(req *http.Request) *http.Request {
	p := req.URL.Path
	if len(p) <= 1 || !strings.HasSuffix(p, "/") {
		return req
	}
	out := req.Clone(req.Context())
	out.URL.Path = strings.TrimSuffix(p, "/")
	if out.URL.RawPath != "" {
		out.URL.RawPath = strings.TrimSuffix(out.URL.RawPath, "/")
	}
	return out
}

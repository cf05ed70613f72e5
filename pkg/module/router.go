package module

import (
	"net/http"
	"sort"
	"strings"
)

// Router dispatches requests to mounted modules by longest matching path
// prefix, falling back to a native ServeMux for unmatched paths.
type Router struct {
	modules []*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with no modules and an empty native fallback mux.
func NewRouter() *Router {
	return &Router{
		native: http.NewServeMux(),
	}
}

// HandleNative registers a handler on the native fallback mux.
func (r *Router) HandleNative(pattern string, handler http.Handler) {
	r.native.Handle(pattern, handler)
}

// Mount registers a module to handle requests under its prefix.
// Mounting a second module with the same prefix replaces the first.
func (r *Router) Mount(m *Module) {
	for i, existing := range r.modules {
		if existing.prefix == m.prefix {
			r.modules[i] = m
			return
		}
	}

	r.modules = append(r.modules, m)
	sort.Slice(r.modules, func(i, j int) bool {
		return len(r.modules[i].prefix) > len(r.modules[j].prefix)
	})
}

// ServeHTTP dispatches to the matching module or falls back to the native mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := normalizePath(req)

	for _, m := range r.modules {
		if matchesPrefix(path, m.prefix) {
			m.ServeHTTP(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}

// matchesPrefix requires a segment boundary so "/api" does not claim "/apis".
func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func normalizePath(req *http.Request) string {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}
	return path
}

package engine

import (
	"fmt"
	"net/http"

	"github.com/cohdi/cdimock/internal/matching"
	"github.com/cohdi/cdimock/pkg/httputil"
)

// Router dispatches requests over a fixed route table.
//
// Unlike http.ServeMux it never cleans or redirects the request path, so a
// request with an empty segment still reaches its route with the parameter
// bound to "". Bound parameters are available through r.PathValue.
type Router struct {
	routes []Route
}

// NewRouter validates the route table and returns a router for it.
func NewRouter(routes []Route) (*Router, error) {
	seen := make(map[string]bool, len(routes))
	for _, rt := range routes {
		if err := matching.ValidateTemplate(rt.Template); err != nil {
			return nil, fmt.Errorf("route %s: %w", rt.Name, err)
		}
		key := rt.Method + " " + rt.Template
		if seen[key] {
			return nil, fmt.Errorf("route %s: duplicate %s", rt.Name, key)
		}
		seen[key] = true
	}
	return &Router{routes: routes}, nil
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		best      *Route
		bestScore int
		params    map[string]string
		allowed   []string
	)

	for i := range rt.routes {
		route := &rt.routes[i]
		score, p := matching.MatchPath(route.Template, r.URL.Path)
		if score == 0 {
			continue
		}
		if route.Method != r.Method {
			allowed = append(allowed, route.Method)
			continue
		}
		if score > bestScore {
			best, bestScore, params = route, score, p
		}
	}

	if best == nil {
		if len(allowed) > 0 {
			httputil.WriteMethodNotAllowed(w, allowed,
				fmt.Sprintf("method %s is not allowed for %s", r.Method, r.URL.Path))
			return
		}
		httputil.WriteNotFound(w)
		return
	}

	for name, value := range params {
		r.SetPathValue(name, value)
	}
	if info := requestInfoFrom(r.Context()); info != nil {
		info.Route = best.Name
	}
	best.Handler.ServeHTTP(w, r)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// RouteKind is the shape of a request path.
type RouteKind int

const (
	// RouteInvalid is any path the API does not serve.
	RouteInvalid RouteKind = iota
	// RouteCollection addresses the whole entry set.
	RouteCollection
	// RouteResource addresses one entry by id.
	RouteResource
	// RouteConfig is the reserved config segment. It is dispatched like a
	// resource whose id is the segment itself.
	RouteConfig
)

// ConfigSegment is the one non-numeric segment that is not rejected.
const ConfigSegment = "config"

// Route is the result of classifying a request path.
type Route struct {
	Kind RouteKind
	ID   string
}

// Path returns the canonical routing path for the route.
func (r Route) Path() string {
	switch r.Kind {
	case RouteCollection:
		return "/"
	case RouteResource, RouteConfig:
		return "/" + r.ID
	default:
		return ""
	}
}

// ClassifyPath maps a URL path to a route.
//
// Leading and trailing slashes are ignored. An empty path is the collection,
// a single numeric-like segment is a resource id, the config segment is
// routed like an id, and everything else is invalid.
func ClassifyPath(path string) Route {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return Route{Kind: RouteCollection}
	}
	if strings.Contains(trimmed, "/") {
		return Route{Kind: RouteInvalid}
	}
	if IsNumericLike(trimmed) {
		return Route{Kind: RouteResource, ID: trimmed}
	}
	if trimmed == ConfigSegment {
		return Route{Kind: RouteConfig, ID: ConfigSegment}
	}
	return Route{Kind: RouteInvalid}
}

// IsNumericLike reports whether s is made of ASCII digits once every
// '.', '-' and '_' is removed, with at least one digit left.
func IsNumericLike(s string) bool {
	digits := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' || c == '-' || c == '_':
		default:
			return false
		}
	}
	return digits > 0
}

// Classify rejects paths that are not a known route with 404 and rewrites
// chi's routing path to the canonical form, so "//123/" routes as "/123".
// It must run as router-level middleware, before chi resolves the route.
func Classify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := ClassifyPath(r.URL.Path)
		if route.Kind == RouteInvalid {
			NotFound(w, r)
			return
		}

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rctx.RoutePath = route.Path()
		}

		next.ServeHTTP(w, r)
	})
}

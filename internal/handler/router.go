package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/timetrack/timeentries/internal/middleware"
)

// resourcePattern matches numeric-like ids and the config segment. Classify
// has already rejected every other single segment.
const resourcePattern = "/{id:(?:[0-9._-]+|" + ConfigSegment + ")}"

// RouterConfig holds the dependencies of the API router.
type RouterConfig struct {
	Logger             *slog.Logger
	Entries            *EntryHandler
	Config             *ConfigHandler
	CORS               middleware.CORSConfig
	Security           middleware.SecurityConfig
	RateLimit          middleware.RateLimitConfig
	MaxRequestBodySize int64
}

// NewRouter builds the public API router.
//
// Middleware order matters: CORS wraps everything after it so that every
// response, including recovered panics and routing errors, carries the CORS
// headers, and OPTIONS is answered before the path is classified.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.RateLimitIP(cfg.RateLimit))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}
	r.Use(Classify)

	r.Get("/", cfg.Entries.List)
	r.Post("/", cfg.Entries.Create)

	r.Get(resourcePattern, cfg.Entries.Get)
	r.Post(resourcePattern, cfg.Entries.Create)
	r.Put(resourcePattern, cfg.Entries.Update)
	r.Delete(resourcePattern, cfg.Entries.Delete)

	// Takes precedence over GET on the resource pattern; other methods on
	// /config still reach the entry handlers.
	if cfg.Config.Enabled() {
		r.Get("/"+ConfigSegment, cfg.Config.Get)
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}

// NewAdminRouter builds the router for the admin listener.
func NewAdminRouter(health *HealthHandler, metrics http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logger))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}

// Package rest exposes the account entry graph over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"devaccountbook-backend/internal/config"
	"devaccountbook-backend/internal/infrastructure/observability"
	"devaccountbook-backend/internal/interfaces/http/rest/handlers"
	"devaccountbook-backend/internal/interfaces/http/rest/middleware"
	"devaccountbook-backend/pkg/errors"
)

// SessionDecorators are applied to every request session, innermost first.
type SessionDecorators []middleware.SessionDecorator

// Router creates and configures the HTTP router
type Router struct {
	config       *config.Config
	entries      *handlers.AccountEntryHandler
	health       *handlers.HealthHandler
	errorHandler *errors.ErrorHandler
	collector    *observability.Collector
	sessions     middleware.SessionOpener
	decorators   SessionDecorators
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	entries *handlers.AccountEntryHandler,
	health *handlers.HealthHandler,
	errorHandler *errors.ErrorHandler,
	collector *observability.Collector,
	sessions middleware.SessionOpener,
	decorators SessionDecorators,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:       cfg,
		entries:      entries,
		health:       health,
		errorHandler: errorHandler,
		collector:    collector,
		sessions:     sessions,
		decorators:   decorators,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(observability.TracingMiddleware(rt.config.Tracing.ServiceName))
	if rt.config.Metrics.Enabled {
		router.Use(observability.MetricsMiddleware(rt.collector))
	}
	router.Use(chimiddleware.Compress(5, "application/json"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.config.CORS.AllowedOrigins,
		AllowedMethods:   rt.config.CORS.AllowedMethods,
		AllowedHeaders:   rt.config.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           rt.config.CORS.MaxAge,
	}))

	router.Get("/healthz", rt.health.Health)
	router.Get("/ready", rt.health.Ready)
	if rt.config.Metrics.Enabled {
		router.Method(http.MethodGet, rt.config.Metrics.Path, rt.collector.Handler())
	}

	router.Route("/v1/account-entries", func(r chi.Router) {
		r.Use(rt.errorHandler.Middleware)
		if timeout := rt.config.Server.RequestTimeout; timeout > 0 {
			r.Use(chimiddleware.Timeout(timeout))
		}
		r.Use(middleware.GraphSession(rt.sessions, rt.logger, rt.decorators...))

		r.Get("/", rt.entries.List)
		r.Post("/", rt.entries.Create)
		r.Get("/count", rt.entries.Count)

		r.Route("/{entryID}", func(r chi.Router) {
			r.Get("/", rt.entries.Get)
			r.Patch("/", rt.entries.Patch)
			r.Delete("/", rt.entries.Delete)

			r.Get("/tree", rt.entries.Tree)
			r.Get("/explore-start-leaf", rt.entries.Tree)

			r.Post("/relations", rt.entries.Link)
			r.Get("/relations", rt.entries.ListLinks)
			r.Delete("/relations/{kind}/{toID}", rt.entries.Unlink)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

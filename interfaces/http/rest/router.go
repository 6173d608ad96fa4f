package rest

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"homelink-backend/interfaces/http/rest/handlers"
	"homelink-backend/interfaces/http/rest/middleware"
	apperrors "homelink-backend/pkg/errors"
	"homelink-backend/pkg/observability"
)

// CORSOptions configures the CORS middleware. An empty origin list, or one
// holding "*", allows any origin.
type CORSOptions struct {
	Enabled        bool
	AllowedOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	devices       *handlers.DeviceHandler
	authenticator *middleware.Authenticator
	errors        *apperrors.ErrorHandler
	collector     *observability.Collector
	cors          CORSOptions
	origins       atomic.Pointer[[]string]
	logger        *zap.Logger
}

// NewRouter creates a new router instance. collector may be nil, in which
// case /metrics is not served.
func NewRouter(
	devices *handlers.DeviceHandler,
	authenticator *middleware.Authenticator,
	errorHandler *apperrors.ErrorHandler,
	collector *observability.Collector,
	corsOptions CORSOptions,
	logger *zap.Logger,
) *Router {
	rt := &Router{
		devices:       devices,
		authenticator: authenticator,
		errors:        errorHandler,
		collector:     collector,
		cors:          corsOptions,
		logger:        logger,
	}
	rt.SetAllowedOrigins(corsOptions.AllowedOrigins)
	return rt
}

// SetAllowedOrigins swaps the CORS origin list on a running router
func (rt *Router) SetAllowedOrigins(origins []string) {
	list := append([]string(nil), origins...)
	rt.origins.Store(&list)
}

func (rt *Router) allowOrigin(_ *http.Request, origin string) bool {
	origins := *rt.origins.Load()
	if len(origins) == 0 {
		return true
	}
	for _, allowed := range origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}
	router.Use(rt.errors.Middleware)

	if rt.cors.Enabled {
		router.Use(cors.Handler(cors.Options{
			AllowOriginFunc:  rt.allowOrigin,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	router.Route("/devices", func(r chi.Router) {
		r.Use(rt.authenticator.Middleware)

		r.Post("/", rt.devices.RegisterDevice)
		r.Get("/", rt.devices.ListDevices)
		r.Get("/{id}", rt.devices.GetDevice)
		r.Put("/{id}", rt.devices.UpdateDevice)
		r.Patch("/{id}", rt.devices.UpdateDevice)
		r.Delete("/{id}", rt.devices.DeleteDevice)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// router/router.go
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dalemusser/signup/config"
	"github.com/dalemusser/signup/logging"
	"github.com/dalemusser/signup/metrics"
	"github.com/dalemusser/signup/middleware"
)

// New creates a chi.Router with the service's standard middleware stack:
// request IDs, real client IPs, panic recovery, body size limit, metrics,
// access logging, security headers and optional compression. Unknown routes
// and methods get JSON errors. Feature routes are mounted by the caller.
func New(cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.LimitBodySize(cfg.HTTP.MaxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger, "/health", "/metrics"))
	r.Use(middleware.SecurityHeadersFromConfig(cfg))
	r.Use(middleware.CompressFromConfig(cfg))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}

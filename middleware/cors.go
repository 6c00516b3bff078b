// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/signup/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies the CORS section of cfg. When CORS is disabled it
// returns an identity middleware, so callers can use it unconditionally.
func CORSFromConfig(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.CORS.EnableCORS {
		return passthrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORS.CORSAllowedHeaders,
		AllowCredentials: cfg.CORS.CORSAllowCredentials,
		MaxAge:           cfg.CORS.CORSMaxAge,
	})
}

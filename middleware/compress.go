// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/signup/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressLevel balances speed against ratio for small HTML and JSON bodies.
const compressLevel = 5

// compressTypes are the content types the service emits that are worth
// compressing.
var compressTypes = []string{"text/html", "text/css", "application/javascript", "application/json"}

// CompressFromConfig returns gzip/deflate compression when
// cfg.HTTP.EnableCompression is set and an identity middleware otherwise.
func CompressFromConfig(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.HTTP.EnableCompression {
		return passthrough
	}
	return middleware.Compress(compressLevel, compressTypes...)
}

func passthrough(next http.Handler) http.Handler { return next }

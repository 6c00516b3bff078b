package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/signup/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	handler := SecureDefaults()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/signup", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	tests := []struct {
		header string
		want   string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "same-origin"},
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	}
	for _, tt := range tests {
		if got := rec.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}

	csp := rec.Header().Get("Content-Security-Policy")
	for _, directive := range []string{"script-src 'self'", "connect-src 'self'", "form-action 'self'"} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP %q missing %q", csp, directive)
		}
	}
	if strings.Contains(csp, "unsafe-inline") {
		t.Errorf("CSP must not allow inline code: %q", csp)
	}

	if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("HSTS should not be set for HTTP requests, got %q", hsts)
	}
}

func TestSecurityHeaders_HSTS_OnlyForTLS(t *testing.T) {
	handler := SecureDefaults()(okHandler())

	t.Run("HTTP", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
		if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
			t.Errorf("HSTS should not be set for HTTP, got %q", hsts)
		}
	})

	t.Run("HTTPS", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
		req.TLS = &tls.ConnectionState{}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got, want := rec.Header().Get("Strict-Transport-Security"), "max-age=31536000; includeSubDomains"; got != want {
			t.Errorf("HSTS = %q, want %q", got, want)
		}
	})
}

func TestSecurityHeaders_HSTS_ForwardedProto(t *testing.T) {
	forwarded := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/signup", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		return req
	}

	t.Run("untrusted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SecurityHeadersFromConfig(&config.Config{})(okHandler()).ServeHTTP(rec, forwarded())
		if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
			t.Errorf("HSTS should ignore X-Forwarded-Proto unless trusted, got %q", hsts)
		}
	})

	t.Run("trusted", func(t *testing.T) {
		cfg := &config.Config{HTTP: config.HTTPConfig{TrustForwardedProto: true}}
		handler := SecurityHeadersFromConfig(cfg)(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, forwarded())
		if got, want := rec.Header().Get("Strict-Transport-Security"), "max-age=31536000; includeSubDomains"; got != want {
			t.Errorf("HSTS = %q, want %q", got, want)
		}

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/signup", nil))
		if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
			t.Errorf("HSTS should not be set for plain HTTP, got %q", hsts)
		}
	})
}

func TestSecurityHeaders_DisabledHeaders(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersOptions{XContentTypeOptions: "nosniff"})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"X-Frame-Options", "Referrer-Policy", "Content-Security-Policy", "Permissions-Policy"} {
		if got := rec.Header().Get(h); got != "" {
			t.Errorf("%s should not be set, got %q", h, got)
		}
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

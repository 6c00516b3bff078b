// metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
		},
		[]string{"path", "method", "status"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_submissions_total",
			Help: "Submit attempts by gate outcome (allowed|blocked).",
		},
		[]string{"outcome"},
	)

	blockedFields = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_blocked_fields_total",
			Help: "Invalid fields found on blocked submit attempts, by field and reason.",
		},
		[]string{"field", "reason"},
	)

	liveValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_live_validations_total",
			Help: "Per-field live validation events by transport (http|ws) and result (valid|invalid).",
		},
		[]string{"transport", "result"},
	)
)

// RegisterDefault registers the Go runtime and process collectors, the HTTP
// histogram and the signup counters. Call it once at startup; repeat calls
// are harmless.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "submission counter", submissions)
	mustRegister(logger, "blocked field counter", blockedFields)
	mustRegister(logger, "live validation counter", liveValidations)
}

func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	err := prometheus.Register(c)
	if err == nil {
		return
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return
	}
	if logger != nil {
		logger.Fatal("failed to register "+name, zap.Error(err))
	}
	panic("metrics: failed to register " + name + ": " + err.Error())
}

// ObserveSubmission records one gate decision. invalid maps each blocking
// field to its reason and is ignored when allowed is true.
func ObserveSubmission(allowed bool, invalid map[string]string) {
	if allowed {
		submissions.WithLabelValues("allowed").Inc()
		return
	}
	submissions.WithLabelValues("blocked").Inc()
	for field, reason := range invalid {
		blockedFields.WithLabelValues(field, reason).Inc()
	}
}

// ObserveLiveValidation records one per-field re-evaluation.
func ObserveLiveValidation(transport string, valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	liveValidations.WithLabelValues(transport, result).Inc()
}

// HTTPMetrics is a middleware that records request duration into
// http_request_duration_seconds, labeled by chi route pattern so that
// label cardinality stays bounded.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		reqDuration.WithLabelValues(path, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	AuthAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blognow_auth_attempts_total",
		Help: "Sign-in and token verification outcomes",
	}, []string{"kind", "result"})
	PostsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blognow_posts_created_total",
		Help: "Total number of posts created",
	})
	EventsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blognow_events_processed_total",
		Help: "Stream events handled by background workers",
	}, []string{"type", "result"})
)

func init() {
	prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration, AuthAttemptsTotal, PostsCreatedTotal, EventsProcessedTotal)
}

// Middleware records request count and latency per route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		labels := prometheus.Labels{"method": r.Method, "path": path, "status": strconv.Itoa(status)}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAuth counts an authentication outcome.
func ObserveAuth(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	AuthAttemptsTotal.WithLabelValues(kind, result).Inc()
}

package devserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habits_devserver_http_requests_total",
			Help: "Total number of HTTP requests by route, method, and status",
		},
		[]string{"route", "method", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habits_devserver_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status_code"},
	)

	authEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habits_devserver_auth_events_total",
			Help: "Total authentication events by type and result",
		},
		[]string{"event_type", "result"},
	)

	completionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habits_devserver_completions_total",
			Help: "Total number of recorded habit completions",
		},
	)

	activeHabits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "habits_devserver_active_habits",
			Help: "Number of active habits across all users",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware labels by route pattern so ids do not explode the
// series count.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		statusCode := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(route, r.Method, statusCode).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method, statusCode).Observe(time.Since(start).Seconds())
	})
}

func recordAuthEvent(eventType, result string) {
	authEventsTotal.WithLabelValues(eventType, result).Inc()
}

package observability

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the admin API.
type Metrics struct {
	// Registry is private to this Metrics instance so repeated construction
	// (e.g. in tests) cannot trigger duplicate-collector panics.
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates a dedicated registry and registers all collectors in it.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_http_requests_total",
				Help: "Total HTTP requests processed.",
			},
			[]string{"method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admin_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// Middleware records a counter and duration sample per request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestLabels = []string{"service", "method", "path", "status"}

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by chi route pattern and status.",
	}, requestLabels)

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency, by chi route pattern and status.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, requestLabels)

	httpRequestsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	}, []string{"service"})
)

// unmatchedRoute labels requests no chi route matched, so arbitrary paths
// cannot grow the label set.
const unmatchedRoute = "unmatched"

// PrometheusMetrics records request count, latency and in-flight requests for
// service. Paths are labelled by route pattern, e.g.
// /api/v1/cart/products/{productId}.
func PrometheusMetrics(service string) func(next http.Handler) http.Handler {
	svc := prometheus.Labels{"service": service}
	total := httpRequestsTotal.MustCurryWith(svc)
	latency := httpRequestDuration.MustCurryWith(svc)
	inFlight := httpRequestsInFlight.With(svc)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			route := routePattern(r)
			if route == "" {
				route = unmatchedRoute
			}
			labels := prometheus.Labels{
				"method": r.Method,
				"path":   route,
				"status": strconv.Itoa(rec.statusCode),
			}
			total.With(labels).Inc()
			latency.With(labels).Observe(elapsed.Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

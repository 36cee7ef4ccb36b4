package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrchooks_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrchooks_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route", "method"},
	)

	// SalesRecorded counts committed sales by payment method.
	SalesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrchooks_sales_recorded_total",
			Help: "Committed sales by payment method",
		},
		[]string{"payment_method"},
	)

	SaleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrchooks_sale_failures_total",
			Help: "Rejected or rolled back sales by reason",
		},
		[]string{"reason"},
	)

	LossesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrchooks_losses_recorded_total",
			Help: "Committed loss entries",
		},
	)

	// UntrackedStock counts stock decrements skipped because the product has
	// no inventory row. Source is "sale" or "loss".
	UntrackedStock = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrchooks_untracked_stock_decrements_total",
			Help: "Stock decrements skipped for products without an inventory row",
		},
		[]string{"source"},
	)

	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrchooks_cache_results_total",
			Help: "Catalog cache lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records request counts and latency labelled by the chi route
// pattern rather than the raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(startedAt).Seconds())
	})
}

package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "taskchain",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskchain",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskchain",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	chainTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskchain",
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Total number of chain transactions submitted.",
		},
		[]string{"method", "status"},
	)

	chainTxDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskchain",
			Subsystem: "chain",
			Name:      "transaction_duration_seconds",
			Help:      "Duration of chain transactions from build to confirmation.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
		[]string{"method"},
	)

	checkoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskchain",
			Subsystem: "payment",
			Name:      "checkout_sessions_total",
			Help:      "Total number of checkout session creation attempts.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		chainTransactions,
		chainTxDuration,
		checkoutSessions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := routePath(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordChainTransaction records one submitted chain transaction.
func RecordChainTransaction(method, status string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	chainTransactions.WithLabelValues(method, status).Inc()
	chainTxDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordCheckoutSession records one checkout session creation attempt.
func RecordCheckoutSession(success bool) {
	status := "error"
	if success {
		status = "ok"
	}
	checkoutSessions.WithLabelValues(status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// routePath prefers the mux route template so metric cardinality stays
// bounded; requests that never matched a route fall back to a collapsed
// path.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return canonicalPath(r.URL.Path)
}

// canonicalPath collapses id and address segments.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "todos":
		if len(parts) > 1 {
			return "/todos/:id"
		}
		return "/todos"
	case "nft-status":
		return "/nft-status/:address"
	case "claim-nft":
		return "/claim-nft/:address"
	}
	return "/" + parts[0]
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "HTTP requests served by the back-office API.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Metrics records request counts and durations. Document and notification
// ids in the path are collapsed to a placeholder to keep label cardinality
// bounded.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath replaces id path segments with {id}. Known static segments
// are kept as-is.
func normalizePath(path string) string {
	static := map[string]bool{
		"documents": true, "notifications": true, "upload": true,
		"list": true, "move": true, "create-folder": true, "version": true,
		"versions": true, "restore": true, "read": true, "read-all": true,
		"healthz": true, "readyz": true, "metrics": true,
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg != "" && !static[seg] {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

package middleware

import (
	"net/http"
	"time"

	"github.com/heartmarshall/lexicon-backend/internal/metrics"
)

// Metrics records request count and latency by route pattern. It must wrap
// the ServeMux directly: the mux sets r.Pattern on the request it receives.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrapWriter(w)

			next.ServeHTTP(sw, r)

			metrics.ObserveHTTP(r.Method, r.Pattern, sw.status, time.Since(start))
		})
	}
}

package middleware

import (
	"net/http"
	"time"

	"wikidomains/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Metrics records request count and latency per chi route template
// unrouted requests are grouped so raw paths never become label values
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := WrapStatus(w)
			start := time.Now()

			next.ServeHTTP(sw, r)

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			m.ObserveHTTP(r.Method, route, sw.Status, time.Since(start))
		})
	}
}

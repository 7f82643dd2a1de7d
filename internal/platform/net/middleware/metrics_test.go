package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"wikidomains/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsUsesRouteTemplate(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/requests/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusLocked)
	})

	for _, p := range []string{"/requests/1", "/requests/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/requests/{id}", "4xx")); got != 2 {
		t.Fatalf("routed count = %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "4xx")); got != 1 {
		t.Fatalf("unmatched count = %v", got)
	}
}

func TestMetricsNilPassesThrough(t *testing.T) {
	t.Parallel()

	called := false
	h := Metrics(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatalf("next not called")
	}
}

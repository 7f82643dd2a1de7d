package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	m.Transition("ssl", "pending", "complete")
	m.Submitted("ssl")
	m.JobResult("ssl", "provision", "done")
	m.Leased(3)
	m.ProviderCall("create", "active", time.Second)
	m.DNSCheck("pointed")
	m.Notified("requestssl-new-request", nil)
	if m.Registry() != nil {
		t.Fatalf("nil metrics should have nil registry")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil handler code = %d", rec.Code)
	}
}

func TestCountersRecord(t *testing.T) {
	t.Parallel()

	m := New()
	m.Transition("ssl", "pending", "complete")
	m.Transition("ssl", "pending", "complete")
	m.Submitted("customdomain")
	m.JobResult("ssl", "domain_check", "done")
	m.Leased(2)
	m.Leased(0)
	m.DNSCheck("notpointed")
	m.Notified("requestssl-request-comment", errors.New("x"))

	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("ssl", "pending", "complete")); got != 2 {
		t.Fatalf("transitions = %v", got)
	}
	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("customdomain")); got != 1 {
		t.Fatalf("submissions = %v", got)
	}
	if got := testutil.ToFloat64(m.JobsLeased); got != 2 {
		t.Fatalf("leased = %v", got)
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("requestssl-request-comment", "error")); got != 1 {
		t.Fatalf("notifications = %v", got)
	}
}

func TestHandlerExposesProjectMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP("POST", "", 503, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	want := `wikidomains_http_requests_total{code="5xx",method="POST",route="unmatched"} 1`
	if !strings.Contains(string(body), want) {
		t.Fatalf("metrics output missing %q", want)
	}
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	cases := map[int]string{101: "1xx", 200: "2xx", 302: "3xx", 423: "4xx", 500: "5xx"}
	for code, want := range cases {
		if got := statusLabel(code); got != want {
			t.Fatalf("statusLabel(%d) = %q, want %q", code, got, want)
		}
	}
}

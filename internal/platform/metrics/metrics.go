// Package metrics owns the process prometheus registry and the collectors shared across modules
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wikidomains"

// Metrics holds the collectors; a nil *Metrics is valid and records nothing
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Transitions   *prometheus.CounterVec
	Submissions   *prometheus.CounterVec
	JobsProcessed *prometheus.CounterVec
	JobsLeased    prometheus.Counter
	ProviderCalls *prometheus.HistogramVec
	DNSChecks     *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// New builds a registry with go/process collectors and the project collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "status_transitions_total",
			Help:      "Request status transitions",
		}, []string{"kind", "from", "to"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "submitted_total",
			Help:      "Submitted requests",
		}, []string{"kind"}),
		JobsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Jobs handled by type and result (done, retry, reschedule, failed)",
		}, []string{"kind", "job_type", "result"}),
		JobsLeased: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "leased_total",
			Help:      "Jobs leased by workers",
		}),
		ProviderCalls: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Provisioning provider calls by operation and outcome status",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"op", "status"}),
		DNSChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dns",
			Name:      "checks_total",
			Help:      "CNAME checks by verdict",
		}, []string{"verdict"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by event and result",
		}, []string{"event", "result"}),
	}
}

// Registry exposes the underlying registry for custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveHTTP records one finished HTTP request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Transition counts a request status change
func (m *Metrics) Transition(kind, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, from, to).Inc()
}

// Submitted counts a new request
func (m *Metrics) Submitted(kind string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind).Inc()
}

// JobResult counts a handled job
func (m *Metrics) JobResult(kind, jobType, result string) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(kind, jobType, result).Inc()
}

// Leased counts leased jobs
func (m *Metrics) Leased(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.JobsLeased.Add(float64(n))
}

// ProviderCall records one provider round trip
func (m *Metrics) ProviderCall(op, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(op, status).Observe(elapsed.Seconds())
}

// DNSCheck counts a verdict
func (m *Metrics) DNSCheck(verdict string) {
	if m == nil {
		return
	}
	m.DNSChecks.WithLabelValues(verdict).Inc()
}

// Notified counts a notification delivery attempt
func (m *Metrics) Notified(event string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Notifications.WithLabelValues(event, result).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "1xx"
}

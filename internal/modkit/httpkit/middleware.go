package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"wikidomains/internal/platform/metrics"
	phttp "wikidomains/internal/platform/net/http"
	"wikidomains/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Timeout        time.Duration
	SlowRequest    time.Duration
}

// CommonStack returns the baseline middleware slice for the versioned api
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		// correlation
		middleware.RequestID(),
		middleware.RealIP(),

		middleware.RecoverJSON,
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.SlowRequest}),
		middleware.Metrics(o.Metrics),

		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.AllowedOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.JSONOnly(),
		middleware.Timeout(o.Timeout),
	}
}

// Auth wires the required auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}

// OptionalAuth wires the optional auth middleware to the platform JSON writer
func OptionalAuth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.OptionalAuth(p, phttp.JSON)
}

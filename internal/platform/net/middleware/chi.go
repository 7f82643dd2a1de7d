// Package middleware is the api's http middleware; handlers never see chi types
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Middleware is the shape every constructor here returns
type Middleware = func(http.Handler) http.Handler

// RequestID keeps an inbound X-Request-ID or mints one, and echoes it on the response
// so a requester can quote it when reporting a stuck request
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := chimw.GetReqID(r.Context()); id != "" {
				w.Header().Set(chimw.RequestIDHeader, id)
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// RealIP trusts X-Real-IP and X-Forwarded-For from the edge proxy
func RealIP() Middleware { return chimw.RealIP }

// Timeout puts a deadline of d on the request context
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// NoCache marks every api response uncacheable
func NoCache() Middleware { return chimw.NoCache }

// Compress compresses responses at level for clients that accept it
func Compress(level int) Middleware { return chimw.NewCompressor(level).Handler }

// StripSlashes routes /x/ as /x
func StripSlashes() Middleware { return chimw.StripSlashes }

// JSONOnly answers 415 to bodies that are not application/json
func JSONOnly() Middleware { return chimw.AllowContentType("application/json") }

// Heartbeat answers GET and HEAD on path with 200 before routing
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

package middleware

import (
	"net/http"

	"wikidomains/internal/platform/logger"
	pnet "wikidomains/internal/platform/net"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	// Parse returns the caller or an error; ok is false when the request carries no credentials
	Parse(r *http.Request) (p pnet.Principal, ok bool, err error)
}

// Auth rejects requests without valid credentials
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return authenticate(p, write, true)
}

// OptionalAuth lets anonymous requests through but still rejects bad credentials
func OptionalAuth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return authenticate(p, write, false)
}

func authenticate(p AuthPort, write func(w http.ResponseWriter, status int, body any), required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			reqID := pnet.RequestID(r.Context())
			who, ok, err := p.Parse(r)
			if err == nil && !ok && required {
				err = errMissingCredentials
			}
			if err != nil {
				env := pnet.ErrorEnvelope(err, reqID)
				write(w, env.StatusCode, env)
				return
			}
			ctx := r.Context()
			if ok {
				ctx = pnet.WithPrincipal(ctx, who)
				ctx = logger.WithRequest(ctx, reqID, who.Name)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

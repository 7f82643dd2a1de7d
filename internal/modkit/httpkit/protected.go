package httpkit

import "wikidomains/internal/platform/net/middleware"

// Protected groups routes that need an authenticated caller
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(gr)
	})
}

// Public groups routes that serve anonymous callers but still pick up a valid identity
func Public(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(OptionalAuth(p))
		fn(gr)
	})
}

package modkit

import (
	"net/http"

	"wikidomains/internal/modkit/httpkit"
)

// Built is what a module constructor needs after options are applied
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any

	// Subrouter wraps the mount point, identity unless overridden
	Subrouter func(httpkit.Router) httpkit.Router
	// Register attaches endpoints, a no-op unless overridden
	Register func(httpkit.Router)
}

// Option adjusts a Built before the module uses it
type Option func(*Built)

// WithName names the module for logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the route prefix the module mounts under
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends scope middleware, outermost first
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands the module a ports bundle owned by the importing module
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithSubrouter replaces the mount point factory
func WithSubrouter(fn func(httpkit.Router) httpkit.Router) Option {
	return func(b *Built) { b.Subrouter = fn }
}

// WithRegister sets the endpoint registration hook
func WithRegister(fn func(httpkit.Router)) Option { return func(b *Built) { b.Register = fn } }

// Build applies opts in order over a zero Built and fills the hook defaults.
// Mw is a fresh slice so callers may reuse the one they passed
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		if o != nil {
			o(&b)
		}
	}
	if b.Subrouter == nil {
		b.Subrouter = func(r httpkit.Router) httpkit.Router { return r }
	}
	if b.Register == nil {
		b.Register = func(httpkit.Router) {}
	}
	return b
}

// Mount scopes b's middleware and prefix on r, then runs Register there
func (b Built) Mount(r httpkit.Router) {
	scoped := func(sr httpkit.Router) {
		if len(b.Mw) > 0 {
			sr.Use(b.Mw...)
		}
		b.Register(b.Subrouter(sr))
	}
	if b.Prefix == "" {
		r.Group(scoped)
		return
	}
	r.Route(b.Prefix, scoped)
}

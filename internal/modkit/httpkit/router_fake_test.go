package httpkit

import (
	"net/http"

	phttp "wikidomains/internal/platform/net/http"
)

type routeCall struct {
	method string
	path   string
}

// fakeRouter records scopes and registrations without serving anything
type fakeRouter struct {
	prefixes []string
	mw       int
	calls    []routeCall
}

func (f *fakeRouter) add(method, path string) { f.calls = append(f.calls, routeCall{method, path}) }

func (f *fakeRouter) Get(path string, _ phttp.Handler)   { f.add(http.MethodGet, path) }
func (f *fakeRouter) Post(path string, _ phttp.Handler)  { f.add(http.MethodPost, path) }
func (f *fakeRouter) Patch(path string, _ phttp.Handler) { f.add(http.MethodPatch, path) }
func (f *fakeRouter) Handle(path string, _ http.Handler) { f.add("HANDLE", path) }

func (f *fakeRouter) Use(mw ...func(http.Handler) http.Handler) { f.mw += len(mw) }

func (f *fakeRouter) With(mw ...func(http.Handler) http.Handler) Router {
	f.mw += len(mw)
	return f
}

func (f *fakeRouter) Group(fn func(Router)) { fn(f) }

func (f *fakeRouter) Route(pattern string, fn func(Router)) {
	f.prefixes = append(f.prefixes, pattern)
	fn(f)
}

func (f *fakeRouter) Mux() http.Handler { return http.NotFoundHandler() }

package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	perrs "wikidomains/internal/platform/errors"
	pnet "wikidomains/internal/platform/net"
	phttp "wikidomains/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

// tokenAuth accepts the single token "7"
type tokenAuth struct{}

func (tokenAuth) Parse(r *http.Request) (pnet.Principal, bool, error) {
	tok, ok, err := Bearer(r)
	if err != nil || !ok {
		return pnet.Principal{}, ok, err
	}
	if tok != "7" {
		return pnet.Principal{}, true, errBadToken
	}
	return pnet.Principal{ID: 7, Name: "Alice"}, true, nil
}

var errBadToken = perrs.Unauthorizedf("unknown token")

func protectedMux() *chi.Mux {
	mux := chi.NewRouter()
	root := phttp.AdaptChi(mux)
	who := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(MaybePrincipal(r).Name))
	}
	Public(root, tokenAuth{}, func(r Router) { r.Get("/open", who) })
	Protected(root, tokenAuth{}, func(r Router) { r.Post("/closed", who) })
	return mux
}

func TestProtectedAndPublic_TokenAuth(t *testing.T) {
	t.Parallel()

	mux := protectedMux()
	call := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	if rec := call(http.MethodGet, "/open", ""); rec.Code != http.StatusOK || rec.Body.String() != "" {
		t.Fatalf("anonymous read = %d %q", rec.Code, rec.Body.String())
	}
	if rec := call(http.MethodGet, "/open", "7"); rec.Body.String() != "Alice" {
		t.Fatalf("public route dropped identity: %q", rec.Body.String())
	}
	if rec := call(http.MethodGet, "/open", "9"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token on public route = %d", rec.Code)
	}
	if rec := call(http.MethodPost, "/closed", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous write = %d", rec.Code)
	}
	if rec := call(http.MethodPost, "/closed", "7"); rec.Code != http.StatusOK || rec.Body.String() != "Alice" {
		t.Fatalf("authorized write = %d %q", rec.Code, rec.Body.String())
	}
}

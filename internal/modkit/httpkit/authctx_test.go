package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	perrs "wikidomains/internal/platform/errors"
	pnet "wikidomains/internal/platform/net"
)

func TestPrincipal(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := Principal(r); !perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
		t.Fatalf("anonymous Principal err = %v", err)
	}
	if !MaybePrincipal(r).Anonymous() {
		t.Fatalf("MaybePrincipal should be anonymous")
	}

	who := pnet.Principal{ID: 7, Name: "Alice"}
	r = r.WithContext(pnet.WithPrincipal(r.Context(), who))
	got, err := Principal(r)
	if err != nil || got != who {
		t.Fatalf("Principal = %+v %v", got, err)
	}
	if MaybePrincipal(r) != who {
		t.Fatalf("MaybePrincipal = %+v", MaybePrincipal(r))
	}
}

func TestBearer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		token  string
		ok     bool
		err    bool
	}{
		{"", "", false, false},
		{"Bearer 42", "42", true, false},
		{"bearer   42  ", "42", true, false},
		{"BEARER abc", "abc", true, false},
		{"Basic Zm9v", "", true, true},
		{"Bearer", "", true, true},
		{"Bea", "", true, true},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if c.header != "" {
			r.Header.Set("Authorization", c.header)
		}
		tok, ok, err := Bearer(r)
		if tok != c.token || ok != c.ok || (err != nil) != c.err {
			t.Fatalf("Bearer(%q) = %q %v %v", c.header, tok, ok, err)
		}
	}
}

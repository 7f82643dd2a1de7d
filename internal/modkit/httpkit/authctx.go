package httpkit

import (
	"net/http"
	"strings"

	perrs "wikidomains/internal/platform/errors"
	pnet "wikidomains/internal/platform/net"
)

// Principal returns the authenticated caller or unauthorized
func Principal(r *http.Request) (pnet.Principal, error) {
	p, ok := pnet.PrincipalFrom(r.Context())
	if !ok {
		return pnet.Principal{}, perrs.Unauthorizedf("missing bearer token")
	}
	return p, nil
}

// MaybePrincipal returns the caller or the anonymous principal
func MaybePrincipal(r *http.Request) pnet.Principal {
	p, _ := pnet.PrincipalFrom(r.Context())
	return p
}

// Bearer returns the raw bearer token from the Authorization header
// ok is false when the header is absent, err is set when it is present but malformed
func Bearer(r *http.Request) (token string, ok bool, err error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	if s == "" {
		return "", false, nil
	}
	const prefix = "bearer"
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", true, perrs.Unauthorizedf("malformed authorization header")
	}
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", true, perrs.Unauthorizedf("missing bearer token")
	}
	return raw, true, nil
}

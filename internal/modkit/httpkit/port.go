package httpkit

import (
	"context"
	"net/http"

	perrs "wikidomains/internal/platform/errors"
	pnet "wikidomains/internal/platform/net"
)

// TokenFunc resolves a bearer token to the caller it identifies
type TokenFunc func(ctx context.Context, token string) (pnet.Principal, error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a resolver function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse resolves the bearer token on r
// ok is false without an Authorization header, any resolver failure is unauthorized
func (p *Port) Parse(r *http.Request) (pnet.Principal, bool, error) {
	raw, ok, err := Bearer(r)
	if !ok || err != nil {
		return pnet.Principal{}, ok, err
	}
	if p.parse == nil {
		return pnet.Principal{}, true, perrs.Unauthorizedf("invalid bearer token")
	}
	who, err := p.parse(r.Context(), raw)
	if err != nil || who.Anonymous() {
		return pnet.Principal{}, true, perrs.Unauthorizedf("invalid bearer token")
	}
	return who, true, nil
}

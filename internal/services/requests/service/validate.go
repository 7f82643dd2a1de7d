package service

import (
	"context"
	"net"
	"net/url"
	"strings"

	"wikidomains/internal/core/normalize"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/net/http/bind"

	"golang.org/x/net/idna"
)

// normalizeDomain validates a submitted custom domain and returns it as https://<ascii host>
func (s *Svc) normalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(normalize.Sanitize(raw))
	bad := func(format string, args ...any) error {
		return perr.WithField(perr.Validationf(format, args...), "custom_domain")
	}
	if raw == "" {
		return "", bad("custom domain is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", bad("custom domain is not a valid URL")
	}
	switch {
	case u.Scheme != "https":
		return "", bad("custom domain must use https")
	case u.Opaque != "" || u.Host == "":
		return "", bad("custom domain must include a host")
	case u.User != nil:
		return "", bad("custom domain must not include credentials")
	case u.Port() != "":
		return "", bad("custom domain must not include a port")
	case u.Path != "" && u.Path != "/":
		return "", bad("custom domain must not include a path")
	case u.RawQuery != "" || u.ForceQuery:
		return "", bad("custom domain must not include a query")
	case u.Fragment != "" || strings.Contains(raw, "#"):
		return "", bad("custom domain must not include a fragment")
	}

	host, err := idna.Lookup.ToASCII(strings.TrimSuffix(u.Hostname(), "."))
	if err != nil {
		return "", bad("custom domain host is not a valid hostname")
	}
	host = strings.ToLower(host)
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return "", bad("custom domain must be a fully qualified hostname")
	}
	for _, d := range s.opt.DisallowedDomains {
		d = strings.ToLower(strings.Trim(strings.TrimSpace(d), "."))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return "", bad("custom domains under %s are not allowed", d)
		}
	}
	return "https://" + host, nil
}

// resolveTarget turns a submitted wiki name into a known database name
func (s *Svc) resolveTarget(ctx context.Context, raw string) (string, error) {
	t := normalize.Ident(raw)
	if sub := strings.Trim(strings.ToLower(s.opt.Subdomain), "."); sub != "" {
		t = strings.TrimSuffix(t, "."+sub)
	}
	if t == "" {
		return "", perr.WithField(perr.Validationf("target is required"), "target")
	}
	if sfx := s.opt.DatabaseSuffix; sfx != "" && !strings.HasSuffix(t, sfx) {
		t += sfx
	}
	if err := bind.Default().Var(t, "dbname"); err != nil {
		return "", perr.WithField(perr.Validationf("target %q is not a valid wiki name", raw), "target")
	}
	ok, err := s.opt.Sites.Exists(ctx, t)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", perr.WithField(perr.Validationf("unknown target %q", raw), "target")
	}
	return t, nil
}

// cleanReason normalizes a free text reason, enforcing RequireReason
func (s *Svc) cleanReason(raw string) (string, error) {
	r := normalize.Text(raw)
	if r == "" && s.opt.RequireReason {
		return "", perr.WithField(perr.Validationf("reason is required"), "reason")
	}
	return r, nil
}

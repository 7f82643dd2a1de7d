// Package dns checks whether a custom domain is pointed at the farm via CNAME
package dns

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
)

// Verdict of one check
type Verdict string

// Verdicts
const (
	Pointed       Verdict = "pointed"
	NotPointed    Verdict = "notpointed"
	Indeterminate Verdict = "indeterminate"
)

const defaultTimeout = 5 * time.Second

// Resolver is the subset of *net.Resolver the verifier uses
type Resolver interface {
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// Options configures a Verifier
type Options struct {
	Resolver Resolver
	Timeout  time.Duration
	Metrics  *metrics.Metrics
}

// Verifier runs CNAME checks
type Verifier struct {
	res     Resolver
	timeout time.Duration
	m       *metrics.Metrics
	log     logger.Logger
}

// New builds a Verifier, the default resolver is net.DefaultResolver
func New(o Options) *Verifier {
	if o.Resolver == nil {
		o.Resolver = net.DefaultResolver
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Verifier{res: o.Resolver, timeout: o.Timeout, m: o.Metrics, log: *logger.Named("dns")}
}

// Result carries the verdict and what the resolver said
type Result struct {
	Verdict Verdict
	CNAME   string
	Detail  string
}

// CheckCNAME resolves host and compares its canonical name with expected
func (v *Verifier) CheckCNAME(ctx context.Context, host, expected string) Result {
	host = canonical(host)
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	cname, err := v.res.LookupCNAME(ctx, host)
	r := Result{CNAME: canonical(cname)}
	switch {
	case err != nil:
		r.Verdict = Indeterminate
		r.Detail = lookupDetail(err)
	case r.CNAME == "" || r.CNAME == host:
		// the resolver hands back the queried name when there is no CNAME record
		r.Verdict = Indeterminate
		r.Detail = "no cname record"
	case r.CNAME == canonical(expected):
		r.Verdict = Pointed
	default:
		r.Verdict = NotPointed
		r.Detail = "cname is " + r.CNAME
	}

	v.m.DNSCheck(string(r.Verdict))
	v.log.Debug().
		Str("host", host).
		Str("cname", r.CNAME).
		Str("verdict", string(r.Verdict)).
		Str("detail", r.Detail).
		Msg("cname check")
	return r
}

func canonical(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	name = strings.TrimRight(name, "/")
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

func lookupDetail(err error) string {
	var de *net.DNSError
	if errors.As(err, &de) {
		switch {
		case de.IsNotFound:
			return "no such host"
		case de.IsTimeout:
			return "lookup timed out"
		}
		return de.Err
	}
	return err.Error()
}

// Package cloudflare provides a small client for the Cloudflare custom hostnames API
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
)

const (
	baseURLDefault      = "https://api.cloudflare.com/client/v4"
	defaultTimeout      = 15 * time.Second
	defaultMinTLS       = "1.3"
	defaultMethod       = "http"
	defaultPollInterval = 10 * time.Second
	defaultMaxPolls     = 30
	defaultUA           = "wikidomains"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	ZoneID    string
	UserAgent string

	// Proxy is an optional outbound proxy URL for every call
	Proxy   string
	Timeout time.Duration

	MinTLSVersion string
	// Method is the DCV method sent on create (http or txt)
	Method string

	// blocking Provision cadence
	PollInterval time.Duration
	MaxPolls     int

	Metrics *metrics.Metrics
}

// Client talks to the custom hostnames endpoints of one zone
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewClient creates a Client with defaults; a bad proxy URL is a validation error
func NewClient(o Options) (*Client, error) {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MinTLSVersion == "" {
		o.MinTLSVersion = defaultMinTLS
	}
	if o.Method == "" {
		o.Method = defaultMethod
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = defaultMaxPolls
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if p := strings.TrimSpace(o.Proxy); p != "" {
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return nil, perr.WithField(perr.Validationf("invalid proxy url %q", p), "proxy")
		}
		tr.Proxy = http.ProxyURL(u)
	}

	return &Client{
		http:  &http.Client{Timeout: o.Timeout, Transport: tr},
		opts:  o,
		log:   *logger.Named("cloudflare"),
		now:   time.Now,
		sleep: sleepCtx,
	}, nil
}

// Configured reports whether the key and zone are set
func (c *Client) Configured() bool {
	return c != nil && c.opts.APIKey != "" && c.opts.ZoneID != ""
}

// MinTLSVersion is the configured minimum TLS version
func (c *Client) MinTLSVersion() string { return c.opts.MinTLSVersion }

// Hostname is the part of a custom hostname resource we care about
type Hostname struct {
	ID                 string   `json:"id"`
	Hostname           string   `json:"hostname"`
	Status             string   `json:"status"`
	VerificationErrors []string `json:"verification_errors,omitempty"`

	// Raw is the truncated response body the hostname was decoded from
	Raw string `json:"-"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope[T any] struct {
	Success bool         `json:"success"`
	Errors  []apiMessage `json:"errors"`
	Result  T            `json:"result"`
}

type sslSettings struct {
	HTTP2         string `json:"http2"`
	TLS13         string `json:"tls_1_3"`
	MinTLSVersion string `json:"min_tls_version"`
}

type sslRequest struct {
	Method   string      `json:"method"`
	Type     string      `json:"type"`
	Settings sslSettings `json:"settings"`
}

type createRequest struct {
	Hostname string     `json:"hostname"`
	SSL      sslRequest `json:"ssl"`
}

var schemeRE = regexp.MustCompile(`(?i)^https?://`)

// HostnameOf strips the scheme and any trailing slash from a custom domain
func HostnameOf(customDomain string) string {
	h := schemeRE.ReplaceAllString(strings.TrimSpace(customDomain), "")
	return strings.ToLower(strings.TrimRight(h, "/"))
}

// CreateHostname registers domain as a custom hostname with a DV certificate
func (c *Client) CreateHostname(ctx context.Context, domain, tlsVersion string) (Hostname, error) {
	if tlsVersion == "" {
		tlsVersion = c.opts.MinTLSVersion
	}
	body := createRequest{
		Hostname: HostnameOf(domain),
		SSL: sslRequest{
			Method:   c.opts.Method,
			Type:     "dv",
			Settings: sslSettings{HTTP2: "on", TLS13: "on", MinTLSVersion: tlsVersion},
		},
	}
	var out envelope[Hostname]
	raw, err := c.do(ctx, "create", http.MethodPost, "/zones/"+url.PathEscape(c.opts.ZoneID)+"/custom_hostnames", body, &out)
	out.Result.Raw = string(truncate(raw, 512))
	return out.Result, err
}

// Hostname fetches the current state of a custom hostname
func (c *Client) Hostname(ctx context.Context, id string) (Hostname, error) {
	var out envelope[Hostname]
	path := "/zones/" + url.PathEscape(c.opts.ZoneID) + "/custom_hostnames/" + url.PathEscape(id)
	raw, err := c.do(ctx, "get", http.MethodGet, path, nil, &out)
	out.Result.Raw = string(truncate(raw, 512))
	return out.Result, err
}

// FindHostname looks a custom hostname up by name, ok is false when none exists
func (c *Client) FindHostname(ctx context.Context, domain string) (Hostname, bool, error) {
	var out envelope[[]Hostname]
	q := url.Values{"hostname": {HostnameOf(domain)}}
	path := "/zones/" + url.PathEscape(c.opts.ZoneID) + "/custom_hostnames?" + q.Encode()
	if _, err := c.do(ctx, "find", http.MethodGet, path, nil, &out); err != nil {
		return Hostname{}, false, err
	}
	if len(out.Result) == 0 {
		return Hostname{}, false, nil
	}
	return out.Result[0], true, nil
}

// do sends one request, decodes the envelope into out and returns the raw body
// 200/201 decode, 4xx/5xx become an *APIError, anything else leaves out empty
func (c *Client) do(ctx context.Context, op, method, path string, in any, out any) ([]byte, error) {
	if !c.Configured() {
		return nil, perr.Unavailablef("cloudflare api key or zone id is missing")
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "encode %s body", op)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "cloudflare new request failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		c.opts.Metrics.ProviderCall(op, "transport", lat)
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "cloudflare %s failed", op)
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	c.log.Debug().
		Str("op", op).
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("cloudflare http response")
	c.opts.Metrics.ProviderCall(op, statusClass(resp.StatusCode), lat)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "cloudflare %s read body", op)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, perr.Wrapf(err, perr.ErrorCodeJSON, "cloudflare %s decode", op)
		}
		return raw, nil
	case resp.StatusCode >= 400:
		var env envelope[json.RawMessage]
		_ = json.Unmarshal(raw, &env)
		return raw, &APIError{Status: resp.StatusCode, Messages: env.Errors, Body: string(truncate(raw, 512))}
	}
	c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Msg("cloudflare returned no usable result")
	return raw, nil
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 200 && code < 300:
		return "2xx"
	}
	return "other"
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

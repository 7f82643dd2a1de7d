package cloudflare

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeAPI struct {
	mu       sync.Mutex
	created  []createRequest
	auth     []string
	statuses []string // served by successive GETs
	gets     int
	createFn func(w http.ResponseWriter)
	existing *Hostname
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/zones/z1/custom_hostnames":
		var in createRequest
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &in)
		f.created = append(f.created, in)
		if f.createFn != nil {
			f.createFn(w)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"result":{"id":"h1","hostname":"`+in.Hostname+`","status":"pending"}}`)
	case r.Method == http.MethodGet && r.URL.Path == "/zones/z1/custom_hostnames/h1":
		st := "pending"
		if f.gets < len(f.statuses) {
			st = f.statuses[f.gets]
		}
		f.gets++
		res := map[string]any{"id": "h1", "hostname": "wiki.example.org", "status": st}
		if st == "pending-dns" {
			res["status"] = "pending"
			res["verification_errors"] = []string{"custom hostname does not CNAME to this zone"}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "result": res})
	case r.Method == http.MethodGet && r.URL.Path == "/zones/z1/custom_hostnames":
		var list []Hostname
		if f.existing != nil && r.URL.Query().Get("hostname") == f.existing.Hostname {
			list = append(list, *f.existing)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "result": list})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":1436,"message":"not found"}]}`)
	}
}

func newTestClient(t *testing.T, api http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL + "/", APIKey: "k", ZoneID: "z1", MaxPolls: 3, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestNewClientDefaultsAndProxy(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.opts.BaseURL != baseURLDefault || c.http.Timeout != 15*time.Second || c.MinTLSVersion() != "1.3" || c.opts.MaxPolls != 30 {
		t.Fatalf("defaults = %+v", c.opts)
	}
	if c.Configured() {
		t.Fatal("empty options should not be configured")
	}

	if _, err := NewClient(Options{Proxy: "http://proxy.internal:8080"}); err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if _, err := NewClient(Options{Proxy: "::nope"}); err == nil {
		t.Fatal("bad proxy accepted")
	}
}

func TestHostnameOf(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"https://Wiki.Example.org":  "wiki.example.org",
		"https://wiki.example.org/": "wiki.example.org",
		"wiki.example.org":          "wiki.example.org",
		"HTTP://a.b":                "a.b",
	} {
		if got := HostnameOf(in); got != want {
			t.Errorf("HostnameOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateHostnameBody(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := newTestClient(t, api)
	h, err := c.CreateHostname(context.Background(), "https://wiki.example.org", "1.2")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.ID != "h1" || h.Status != "pending" {
		t.Fatalf("hostname = %+v", h)
	}
	got := api.created[0]
	if got.Hostname != "wiki.example.org" || got.SSL.Method != "http" || got.SSL.Type != "dv" {
		t.Fatalf("body = %+v", got)
	}
	if got.SSL.Settings != (sslSettings{HTTP2: "on", TLS13: "on", MinTLSVersion: "1.2"}) {
		t.Fatalf("settings = %+v", got.SSL.Settings)
	}
	if api.auth[0] != "Bearer k" {
		t.Fatalf("auth = %q", api.auth[0])
	}
}

func TestProvisionBecomesActive(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{statuses: []string{"pending", "active"}}
	c := newTestClient(t, api)
	o := c.Provision(context.Background(), "https://wiki.example.org", "")
	if o.Status != StatusActive || o.HostnameID != "h1" || !o.Final {
		t.Fatalf("outcome = %+v", o)
	}
	if api.gets != 2 {
		t.Fatalf("gets = %d", api.gets)
	}
	if api.created[0].SSL.Settings.MinTLSVersion != "1.3" {
		t.Fatalf("default tls = %q", api.created[0].SSL.Settings.MinTLSVersion)
	}
}

func TestProvisionVerificationErrors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeAPI{statuses: []string{"pending-dns"}})
	o := c.Provision(context.Background(), "https://wiki.example.org", "")
	if o.Status != StatusPending || len(o.VerificationErrors) != 1 || !o.Final {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestProvisionTimesOut(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := newTestClient(t, api)
	o := c.Provision(context.Background(), "https://wiki.example.org", "")
	if o.Status != StatusTimeout || o.HostnameID != "h1" {
		t.Fatalf("outcome = %+v", o)
	}
	if api.gets != 3 {
		t.Fatalf("gets = %d, want MaxPolls", api.gets)
	}
}

func TestProvisionCancelled(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeAPI{})
	c.sleep = sleepCtx
	c.opts.PollInterval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := c.Provision(ctx, "https://wiki.example.org", "")
	if o.Status != StatusError || !o.Final {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestStartErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		create func(w http.ResponseWriter)
		status string
		detail string
	}{
		{
			name: "api error body",
			create: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":1409,"message":"hostname is prohibited"}]}`)
			},
			status: StatusError,
			detail: "hostname is prohibited",
		},
		{
			name: "server error without body",
			create: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadGateway)
			},
			status: StatusError,
			detail: "cloudflare: http 502",
		},
		{
			name:   "no content is empty",
			create: func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) },
			status: StatusError,
			detail: "empty response from provider",
		},
		{
			name: "blocked",
			create: func(w http.ResponseWriter) {
				_, _ = io.WriteString(w, `{"success":true,"result":{"id":"h9","status":"blocked"}}`)
			},
			status: StatusBlocked,
		},
		{
			name: "unexpected status",
			create: func(w http.ResponseWriter) {
				_, _ = io.WriteString(w, `{"success":true,"result":{"id":"h9","status":"moved"}}`)
			},
			status: "moved",
			detail: "moved",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, &fakeAPI{createFn: tc.create})
			o := c.Start(context.Background(), "https://wiki.example.org", "")
			if o.Status != tc.status || !o.Final || (tc.detail != "" && o.Detail != tc.detail) {
				t.Fatalf("outcome = %+v", o)
			}
		})
	}
}

func TestStartAdoptsExistingHostname(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		existing: &Hostname{ID: "h7", Hostname: "wiki.example.org", Status: "active"},
		createFn: func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":1406,"message":"Duplicate custom hostname found."}]}`)
		},
	}
	c := newTestClient(t, api)
	o := c.Start(context.Background(), "https://wiki.example.org", "")
	if o.Status != StatusActive || o.HostnameID != "h7" {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	t.Parallel()

	c, _ := NewClient(Options{})
	o := c.Provision(context.Background(), "https://wiki.example.org", "")
	if o.Status != StatusError || !strings.Contains(o.Detail, "missing") {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestPollKeepsID(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, &fakeAPI{})
	o := c.Poll(context.Background(), "missing")
	if o.Status != StatusError || o.HostnameID != "missing" || o.Detail != "not found" {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestStartWithoutHostnameID(t *testing.T) {
	t.Parallel()

	const body = `{"success":true,"result":{"hostname":"wiki.example.org","status":"pending"}}`
	api := &fakeAPI{createFn: func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, body)
	}}
	c := newTestClient(t, api)

	o := c.Start(context.Background(), "https://wiki.example.org", "")
	if o.Status != StatusError || !o.Final || o.HostnameID != "" || !strings.Contains(o.Detail, body) {
		t.Fatalf("outcome = %+v", o)
	}

	o = c.Provision(context.Background(), "https://wiki.example.org", "")
	if o.Status != StatusError || api.gets != 0 || len(api.created) != 2 {
		t.Fatalf("provision polled without an id: %+v gets=%d", o, api.gets)
	}

	if o := Classify(Hostname{Status: StatusPending}, nil); o.Status != StatusError || !o.Final {
		t.Fatalf("classify = %+v", o)
	}
}

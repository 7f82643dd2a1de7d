// Package http serves /meta: liveness, readiness against the stores, and the build
package http

import (
	"context"
	"net/http"
	"time"

	"wikidomains/internal/core/version"
	"wikidomains/internal/modkit/httpkit"
)

// Pinger is any store that can prove it is reachable
type Pinger interface {
	Ping(context.Context) error
}

// PingFunc adapts a plain func, for clients like redis whose Ping has another shape
type PingFunc func(context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps for the meta routes
// store fields left untyped nil are reported skipped; anything that is not a Pinger is unknown
type Deps struct {
	ServiceName string
	StartedAt   time.Time

	PG    any // request store, required
	CH    any // audit log
	Redis any // notification fanout

	Now func() time.Time
}

const readyTimeout = 2 * time.Second

// check states
const (
	checkOK      = "ok"
	checkFail    = "fail"
	checkSkipped = "skipped"
	checkUnknown = "unknown"
)

// overall states
const (
	readyOK       = "ok"
	readyDegraded = "degraded"
	readyFail     = "fail"
)

type probe struct {
	name     string
	target   any
	required bool
}

type handlers struct {
	Deps
	probes []probe
}

// Register mounts /health, /ready and /version on r
func Register(r httpkit.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{Deps: d, probes: []probe{
		{name: "pg", target: d.PG, required: true},
		{name: "ch", target: d.CH},
		{name: "redis", target: d.Redis},
	}}

	httpkit.Get(r, "/health", h.health)
	r.Get("/ready", httpkit.Handle(h.ready))
	httpkit.Get(r, "/version", h.version)
}

// HealthResponse says the process is up
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"wikidomains-api"`
	Started string `json:"started" example:"2026-10-01T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
	Now     string `json:"now"     example:"2026-10-01T13:05:00Z"`
}

// ReadyCheck is one store's probe result: ok, fail, skipped or unknown
type ReadyCheck struct {
	Name     string `json:"name"            example:"pg"`
	Status   string `json:"status"          example:"ok"`
	Required bool   `json:"required"        example:"true"`
	Error    string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok, degraded when an optional store is down or pg was not probed,
// or fail when pg is down
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-10-01T13:05:00Z"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	now := h.Now()
	return HealthResponse{
		OK:      true,
		Service: h.ServiceName,
		Started: stamp(h.StartedAt),
		Uptime:  int64(now.Sub(h.StartedAt).Seconds()),
		Now:     stamp(now),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness, probing postgres, clickhouse and redis
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Failure 503 type ReadyResponse postgres unreachable
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) httpkit.Response {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	out := ReadyResponse{Status: readyOK, Now: stamp(h.Now())}
	for _, p := range h.probes {
		c := run(ctx, p)
		out.Checks = append(out.Checks, c)

		switch {
		case c.Status == checkOK || c.Status == checkSkipped && !p.required:
		case p.required && c.Status == checkFail:
			out.Status = readyFail
		case out.Status == readyOK:
			out.Status = readyDegraded
		}
	}

	if out.Status == readyFail {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}
	}
	return httpkit.OK(out)
}

func run(ctx context.Context, p probe) ReadyCheck {
	c := ReadyCheck{Name: p.name, Required: p.required, Status: checkUnknown}
	switch t := p.target.(type) {
	case nil:
		c.Status = checkSkipped
	case Pinger:
		if err := t.Ping(ctx); err != nil {
			c.Status, c.Error = checkFail, err.Error()
			break
		}
		c.Status = checkOK
	}
	return c
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	info := version.Info()
	if h.ServiceName != "" {
		info.Service = h.ServiceName
	}
	return info, nil
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

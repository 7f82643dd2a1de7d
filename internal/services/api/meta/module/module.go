// Package module mounts health, readiness and version endpoints
package module

import (
	"context"

	"wikidomains/internal/modkit"
	"wikidomains/internal/modkit/httpkit"
	str "wikidomains/internal/platform/strings"
	metahttp "wikidomains/internal/services/api/meta/http"
)

// Module serves /meta
type Module struct {
	built modkit.Built
}

// New builds the meta module for service, probing whichever stores deps carries
func New(deps modkit.Deps, service string, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	now := deps.Clock()
	md := metahttp.Deps{ServiceName: service, StartedAt: now(), Now: now}
	// a typed nil would be probed, untyped nil reports skipped
	if deps.PG != nil {
		md.PG = deps.PG
	}
	if deps.CH != nil {
		md.CH = deps.CH
	}
	if rds := deps.RDS; rds != nil {
		md.Redis = metahttp.PingFunc(func(ctx context.Context) error { return rds.Ping(ctx).Err() })
	}

	extra := b.Register
	b.Register = func(r httpkit.Router) {
		metahttp.Register(r, md)
		extra(r)
	}
	return &Module{built: b}
}

// MountRoutes mounts /meta on r
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r) }

// Name is "meta" unless overridden
func (m *Module) Name() string { return str.Required(m.built.Name, "meta module name") }

// Prefix is the normalized mount prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.built.Prefix) }

// Ports is empty, nothing depends on meta
func (m *Module) Ports() any { return nil }

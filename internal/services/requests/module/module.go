// Package module wires the request lifecycle into the API using modkit
package module

import (
	"wikidomains/internal/adapters/auditlog"
	"wikidomains/internal/adapters/directory"
	"wikidomains/internal/adapters/notify"
	"wikidomains/internal/adapters/sites"
	modkit "wikidomains/internal/modkit"
	"wikidomains/internal/modkit/httpkit"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/services/requests/domain"
	rhttp "wikidomains/internal/services/requests/http"
	"wikidomains/internal/services/requests/repo"
	svc "wikidomains/internal/services/requests/service"
)

// Module implements the requests API module
type Module struct {
	built modkit.Built
	opts  Options
	ports Ports
	svc   *svc.Svc
}

// New constructs the requests module
// an Enqueuer injected through modkit.WithPorts(Ports{...}) turns on provision and check
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("requests"),
		modkit.WithPrefix("/{kind}/requests"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	log := logger.Named("requests")

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Enqueuer == nil {
		log.Warn().Msg("no job enqueuer, provision and check requests will be refused")
	}

	users := directory.New(deps.PG)

	s := svc.New(deps.PG, repo.NewPG(), svc.Options{
		Sites:    sites.New(deps.PG),
		Users:    users,
		Audit:    auditFor(deps, cfg),
		Sink:     sinkFor(deps),
		Enqueuer: injected.Enqueuer,
		Metrics:  deps.Metrics,
		Now:      deps.Clock(),

		Kinds:             cfg.Kinds,
		Privacy:           cfg.Privacy,
		CentralWiki:       cfg.CentralWiki,
		DatabaseSuffix:    cfg.DatabaseSuffix,
		Subdomain:         cfg.Subdomain,
		DisallowedDomains: cfg.DisallowedDomains,
		NotifyOnAll:       cfg.NotifyOnAll,
		HelpURL:           cfg.HelpURL,
		RequireReason:     cfg.RequireReason,
		CNAMETarget:       cfg.CNAMETarget,
		AutoProvision:     cfg.AutoProvision,
		ReopenPointed:     cfg.ReopenPointed,
		ProviderReady:     cfg.ProviderReady,
		ScriptCommand:     cfg.ScriptCommand,
		ServerIP:          cfg.ServerIP,
		LockTimeout:       cfg.LockTimeout,
		TxAttempts:        cfg.TxAttempts,
		SyncNotify:        cfg.SyncNotify,
		NotifyTimeout:     cfg.NotifyTimeout,
	})

	auth := httpkit.NewPortFunc(tokenResolver{users: users}.resolve)
	extra := b.Register
	b.Register = func(r httpkit.Router) {
		rhttp.Register(r, s, auth)
		extra(r)
	}

	return &Module{
		built: b,
		opts:  cfg,
		svc:   s,
		ports: Ports{
			Enqueuer: injected.Enqueuer,
			Service:  s,
			Jobs:     s,
		},
	}
}

func auditFor(deps modkit.Deps, cfg Options) domain.AuditLog {
	if deps.CH == nil {
		return auditlog.NewLog()
	}
	a, err := auditlog.NewClickhouse(deps.CH, cfg.AuditTable)
	if err != nil {
		logger.Named("requests").Error().Err(err).Msg("clickhouse audit log disabled")
		return auditlog.NewLog()
	}
	return a
}

func sinkFor(deps modkit.Deps) domain.NotificationSink {
	if deps.RDS == nil {
		return notify.NewLog()
	}
	return notify.Fanout{notify.NewRedis(deps.RDS, notify.RedisOptions{}), notify.NewLog()}
}

// Wait blocks until queued notifications are delivered
func (m *Module) Wait() { m.svc.Notifier().Wait() }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r) }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.built.Prefix }

// Package module wires the request job worker and exposes its ports
package module

import (
	"os"

	"wikidomains/internal/adapters/cloudflare"
	"wikidomains/internal/adapters/dns"
	"wikidomains/internal/core/version"
	"wikidomains/internal/modkit"
	"wikidomains/internal/modkit/httpkit"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/services/jobs/service"
)

// Module defines the jobs worker module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs the jobs module with its ports
// the Enqueuer works without a Lifecycle, the Worker does not
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	merge(&opts, overrides)

	if opts.WorkerID == "" {
		host, _ := os.Hostname()
		opts.WorkerID = "jobs@" + host
	}

	log := logger.Named("jobs")
	sopt := service.Options{
		Lifecycle: opts.Lifecycle,
		DNS:       dns.New(dns.Options{Metrics: deps.Metrics}),
		Metrics:   deps.Metrics,
		Now:       deps.Clock(),
	}

	cf, err := cloudflare.NewClient(cloudflare.Options{
		BaseURL:       opts.Cloudflare.BaseURL,
		APIKey:        opts.Cloudflare.APIKey,
		ZoneID:        opts.Cloudflare.ZoneID,
		UserAgent:     version.UserAgent(),
		Proxy:         opts.Cloudflare.Proxy,
		Timeout:       opts.Cloudflare.Timeout,
		MinTLSVersion: opts.Cloudflare.MinTLSVersion,
		PollInterval:  opts.PollInterval,
		MaxPolls:      opts.MaxPolls,
		Metrics:       deps.Metrics,
	})
	if err != nil {
		// provisioning jobs complete as no-ops without a provider
		log.Error().Err(err).Msg("cloudflare client disabled")
	} else {
		sopt.Provider = cf
	}

	svc := service.New(deps.PG, service.Config{
		WorkerID:        opts.WorkerID,
		Concurrency:     opts.Concurrency,
		QueueTakeBatch:  opts.QueueTakeBatch,
		RetryBaseMs:     opts.RetryBaseMs,
		MaxAttempts:     opts.MaxAttempts,
		Lease:           opts.Lease,
		PollInterval:    opts.PollInterval,
		MaxPolls:        opts.MaxPolls,
		CNAMETarget:     opts.CNAMETarget,
		RecheckSchedule: opts.RecheckSchedule,
		Kinds:           opts.Kinds,
	}, sopt)

	return &Module{
		deps: deps,
		opts: opts,
		ports: Ports{
			Worker:   svc,
			Enqueuer: svc,
		},
	}
}

func merge(o *Options, in Options) {
	if in.WorkerID != "" {
		o.WorkerID = in.WorkerID
	}
	if in.Concurrency != 0 {
		o.Concurrency = in.Concurrency
	}
	if in.QueueTakeBatch != 0 {
		o.QueueTakeBatch = in.QueueTakeBatch
	}
	if in.RetryBaseMs != 0 {
		o.RetryBaseMs = in.RetryBaseMs
	}
	if in.MaxAttempts != 0 {
		o.MaxAttempts = in.MaxAttempts
	}
	if in.Lease != 0 {
		o.Lease = in.Lease
	}
	if in.PollInterval != 0 {
		o.PollInterval = in.PollInterval
	}
	if in.MaxPolls != 0 {
		o.MaxPolls = in.MaxPolls
	}
	if in.RecheckSchedule != "" {
		o.RecheckSchedule = in.RecheckSchedule
	}
	if in.CNAMETarget != "" {
		o.CNAMETarget = in.CNAMETarget
	}
	if len(in.Kinds) != 0 {
		o.Kinds = in.Kinds
	}
	if in.Cloudflare.APIKey != "" {
		o.Cloudflare.APIKey = in.Cloudflare.APIKey
	}
	if in.Cloudflare.ZoneID != "" {
		o.Cloudflare.ZoneID = in.Cloudflare.ZoneID
	}
	if in.Cloudflare.BaseURL != "" {
		o.Cloudflare.BaseURL = in.Cloudflare.BaseURL
	}
	if in.Lifecycle != nil {
		o.Lifecycle = in.Lifecycle
	}
}

// Options returns the merged options
func (m *Module) Options() Options { return m.opts }

// Ports returns the module ports (Worker, Enqueuer)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "jobs" }

// Prefix returns the module route prefix (none for a worker-only service)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}

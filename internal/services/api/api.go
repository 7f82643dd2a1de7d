// Package api provides the HTTP API for the application
package api

import (
	"time"

	"wikidomains/internal/platform/config"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
	phttp "wikidomains/internal/platform/net/http"
	"wikidomains/internal/platform/store"

	"wikidomains/internal/modkit"
	"wikidomains/internal/modkit/httpkit"
	"wikidomains/internal/modkit/module"
	"wikidomains/internal/modkit/swaggerkit"

	metamod "wikidomains/internal/services/api/meta/module"
	jobsmod "wikidomains/internal/services/jobs/module"
	requestsmod "wikidomains/internal/services/requests/module"
)

// Options are the API options
type Options struct {
	// Config is the root config, modules pick their own prefixes
	Config  config.Conf
	Store   *store.Store
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	ServiceName    string
	AllowedOrigins []string
	Timeout        time.Duration
	SlowRequest    time.Duration
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
// the returned func blocks until in-flight notifications are delivered
func Mount(r phttp.Router, opt Options) (wait func()) {
	deps := modkit.FromStore(opt.Config, opt.Store, opt.Metrics)
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.ServiceName == "" {
		opt.ServiceName = "wikidomains-api"
	}

	// the jobs module owns the Enqueuer port, the API process never runs its worker
	jobs := jobsmod.New(deps, jobsmod.Options{})
	enq := module.MustPortsOf[jobsmod.Ports](jobs).Enqueuer

	requests := requestsmod.New(
		deps,
		modkit.WithPorts(requestsmod.Ports{
			Enqueuer: enq,
		}),
	)

	mods := []module.Module{
		metamod.New(deps, opt.ServiceName),
		jobs,
		requests,
	}

	r.Handle("/metrics", opt.Metrics.Handler())

	stack := httpkit.CommonStack(httpkit.StackOptions{
		Metrics:        opt.Metrics,
		AllowedOrigins: opt.AllowedOrigins,
		Timeout:        opt.Timeout,
		SlowRequest:    opt.SlowRequest,
	})
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger, "")
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		module.Mount(api, mods...)
	})
	deps.Log.Info().Strs("modules", module.Names()).Str("service", opt.ServiceName).Msg("api mounted")

	return requests.Wait
}

// @title         wikidomains API
// @version       1.0
// @description   Custom domain and TLS certificate request moderation

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wikidomains/internal/core/version"
	"wikidomains/internal/modkit/repokit"
	"wikidomains/internal/platform/config"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
	phttp "wikidomains/internal/platform/net/http"
	"wikidomains/internal/platform/store"

	"wikidomains/internal/services/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// service-scoped config for HTTP (CORE_API_*), modules read their own prefixes off root
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	st, err := store.Open(ctx, store.FromConfig(root, "api", version.Info().Version), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustReady(ctx, st, 5*time.Second)

	// http server (reads CORE_API_API_PORT / CORE_API_SHUTDOWN_GRACE)
	srv := phttp.NewServer(apiCfg)

	wait := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Metrics:        metrics.New(),
			ServiceName:    "wikidomains-api",
			AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil),
			Timeout:        apiCfg.MayDuration("REQUEST_TIMEOUT", 0),
			SlowRequest:    apiCfg.MayDuration("SLOW_REQUEST", 0),
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	l.Info().Str("addr", srv.Addr()).Msg("wikidomains api listening")
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
	wait()
}

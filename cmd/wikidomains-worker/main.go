package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wikidomains/internal/core/version"
	"wikidomains/internal/modkit"
	"wikidomains/internal/modkit/module"
	"wikidomains/internal/modkit/repokit"
	"wikidomains/internal/platform/config"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
	"wikidomains/internal/platform/store"

	jobsmod "wikidomains/internal/services/jobs/module"
	requestsmod "wikidomains/internal/services/requests/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	l := logger.Get()

	var (
		fConc     = flag.Int("concurrency", 4, "worker concurrency")
		fBatch    = flag.Int("batch", 16, "DB lease batch size per poll")
		fRetry    = flag.Int("retry_base_ms", 500, "base backoff (ms) for failed jobs")
		fMaxAtt   = flag.Int("max_attempts", 10, "max attempts before giving up")
		fRecheck  = flag.String("recheck", "", "cron spec for the notpointed sweep (default from env)")
		fMetrics  = flag.String("metrics_addr", "", "serve /metrics on this address when set")
		fWorkerID = flag.String("id", "", "worker id recorded on leased jobs")
	)
	flag.Parse()

	// export as env so FromConfig sees the same values
	mustSetEnv("JOBS_WORKER_CONCURRENCY", fmt.Sprintf("%d", *fConc))
	mustSetEnv("JOBS_QUEUE_TAKE_BATCH", fmt.Sprintf("%d", *fBatch))
	mustSetEnv("JOBS_RETRY_BASE", fmt.Sprintf("%dms", *fRetry))
	mustSetEnv("JOBS_MAX_ATTEMPTS", fmt.Sprintf("%d", *fMaxAtt))
	mustSetEnv("JOBS_RECHECK_SCHEDULE", *fRecheck)

	st, err := store.Open(ctx, store.FromConfig(root, "worker", version.Info().Version), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustReady(ctx, st, 5*time.Second)

	m := metrics.New()
	deps := modkit.FromStore(root, st, m)

	// job outcomes never enqueue, so the lifecycle here needs no Enqueuer
	requests := requestsmod.New(deps)
	lifecycle := module.MustPortsOf[requestsmod.Ports](requests).Jobs

	mod := jobsmod.New(deps, jobsmod.Options{
		WorkerID:       *fWorkerID,
		Concurrency:    *fConc,
		QueueTakeBatch: *fBatch,
		RetryBaseMs:    *fRetry,
		MaxAttempts:    *fMaxAtt,
		Lifecycle:      lifecycle,
	})
	module.Register(requests.Name(), requests.Ports())
	module.Register(mod.Name(), mod.Ports())

	if *fMetrics != "" {
		ms := &http.Server{Addr: *fMetrics, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() { _ = ms.Shutdown(context.Background()) }()
	}

	ports := module.MustPortsOf[jobsmod.Ports](mod)
	l.Info().Str("worker_id", mod.Options().WorkerID).Msg("jobs worker starting")
	if err := ports.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Error().Err(err).Msg("jobs worker failed")
	}
	requests.Wait()
}

// Package service implements the request job worker and the enqueue port
package service

import (
	"context"
	"time"

	"wikidomains/internal/adapters/cloudflare"
	"wikidomains/internal/adapters/dns"
	"wikidomains/internal/modkit/repokit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
	dom "wikidomains/internal/services/jobs/domain"
	jrepo "wikidomains/internal/services/jobs/repo"
	rdom "wikidomains/internal/services/requests/domain"
)

// Config controls the worker
type Config struct {
	WorkerID       string
	Concurrency    int
	QueueTakeBatch int
	RetryBaseMs    int
	MaxAttempts    int
	Lease          time.Duration

	// provisioning poll cadence
	PollInterval time.Duration
	MaxPolls     int

	CNAMETarget string

	// RecheckSchedule is a cron spec for the notpointed sweep, empty disables it
	RecheckSchedule string
	RecheckBatch    int
	Kinds           []rdom.Kind
}

// DNSChecker runs one CNAME check
type DNSChecker interface {
	CheckCNAME(ctx context.Context, host, expected string) dns.Result
}

// Provisioner creates and polls custom hostnames
type Provisioner interface {
	Configured() bool
	MinTLSVersion() string
	Start(ctx context.Context, domain, tlsVersion string) cloudflare.Outcome
	Poll(ctx context.Context, id string) cloudflare.Outcome
}

// Options carries the collaborators, only Run needs Lifecycle
type Options struct {
	Lifecycle dom.Lifecycle
	DNS       DNSChecker
	Provider  Provisioner
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Svc implements both worker and enqueue ports
type Svc struct {
	repo jrepo.Repo
	cfg  Config
	opt  Options
	now  func() time.Time
	log  logger.Logger
}

// New constructs the service over db
func New(db repokit.Queryer, cfg Config, opt Options) *Svc {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.QueueTakeBatch <= 0 {
		cfg.QueueTakeBatch = 16
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Lease <= 0 {
		cfg.Lease = time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 30
	}
	if cfg.RecheckBatch <= 0 {
		cfg.RecheckBatch = 100
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = rdom.Kinds
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Svc{
		repo: jrepo.NewPG().Bind(db),
		cfg:  cfg,
		opt:  opt,
		now:  opt.Now,
		log:  *logger.Named("jobs-worker"),
	}
}

// Enqueue implements the requests Enqueuer
func (s *Svc) Enqueue(ctx context.Context, kind rdom.Kind, jobType rdom.JobType, requestID int64) error {
	id, err := s.repo.Enqueue(ctx, kind, jobType, requestID, s.cfg.MaxAttempts)
	if err != nil {
		return perr.WithOp(err, "jobs.enqueue")
	}
	logger.C(ctx).Debug().
		Str("job_id", id).
		Str("kind", string(kind)).
		Str("job_type", string(jobType)).
		Int64("request_id", requestID).
		Msg("job enqueued")
	return nil
}

func durationMs(ms int) time.Duration {
	if ms <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

// nextAfter is exponential in attempt with a 30s cap
func (s *Svc) nextAfter(attempt int) time.Time {
	back := durationMs(s.cfg.RetryBaseMs)
	ms := int64(back/time.Millisecond) << uint(min(attempt, 16))
	if ms > int64(30*time.Second/time.Millisecond) {
		ms = int64(30 * time.Second / time.Millisecond)
	}
	return s.now().UTC().Add(time.Duration(ms) * time.Millisecond)
}

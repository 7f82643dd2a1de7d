package service

import (
	"context"
	"fmt"

	"wikidomains/internal/adapters/cloudflare"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"
	dom "wikidomains/internal/services/jobs/domain"
	rdom "wikidomains/internal/services/requests/domain"
)

// step is what a handler decided to do with its job
type step struct {
	result     string // done, reschedule, retry
	err        error
	hostnameID string
	polls      int
}

func done() step           { return step{result: "done"} }
func retry(err error) step { return step{result: "retry", err: err} }

// Handle runs one leased job and settles it in the queue
func (s *Svc) Handle(ctx context.Context, j dom.Job) error {
	ctx = logger.WithJob(ctx, j.JobID, j.RequestID)
	var st step
	switch j.Type {
	case rdom.JobDomainCheck:
		st = s.domainCheck(ctx, j)
	case rdom.JobProvision:
		st = s.provision(ctx, j)
	default:
		s.log.Warn().Str("job_type", string(j.Type)).Str("job_id", j.JobID).Msg("unknown job type dropped")
		st = done()
	}
	return s.settle(ctx, j, st)
}

func (s *Svc) settle(ctx context.Context, j dom.Job, st step) error {
	result := st.result
	var err error
	switch st.result {
	case "reschedule":
		err = s.repo.Reschedule(ctx, j.JobID, st.hostnameID, st.polls, s.now().UTC().Add(s.cfg.PollInterval))
	case "retry":
		max := j.MaxAttempts
		if max <= 0 {
			max = s.cfg.MaxAttempts
		}
		if j.Attempts+1 >= max {
			s.log.Error().
				Err(st.err).
				Str("job_id", j.JobID).
				Str("job_type", string(j.Type)).
				Int64("request_id", j.RequestID).
				Int("attempts", j.Attempts+1).
				Msg("job gave up")
			result = "failed"
			err = s.repo.Complete(ctx, j.JobID, j.Generation)
			break
		}
		s.log.Warn().Err(st.err).Str("job_id", j.JobID).Int("attempt", j.Attempts+1).Msg("job will retry")
		err = s.repo.Requeue(ctx, j.JobID, st.err.Error(), s.nextAfter(j.Attempts))
	default:
		err = s.repo.Complete(ctx, j.JobID, j.Generation)
	}
	s.opt.Metrics.JobResult(string(j.Kind), string(j.Type), result)
	return err
}

// domainCheck only looks at queued or notpointed requests
// a notpointed request is only touched when the verdict changes
func (s *Svc) domainCheck(ctx context.Context, j dom.Job) step {
	if s.cfg.CNAMETarget == "" || s.opt.DNS == nil {
		s.log.Warn().Int64("request_id", j.RequestID).Msg("domain check without a cname target")
		return done()
	}
	req, err := s.opt.Lifecycle.Load(ctx, j.RequestID)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return done()
	}
	if err != nil {
		return retry(err)
	}
	if req.Status != rdom.StatusPending && req.Status != rdom.StatusNotPointed {
		return done()
	}
	if req.Host() == "" {
		s.log.Warn().Int64("request_id", j.RequestID).Str("custom_domain", req.CustomDomain).Msg("domain check skipped, no usable host")
		return done()
	}

	res := s.opt.DNS.CheckCNAME(ctx, req.Host(), s.cfg.CNAMETarget)
	verdict := rdom.CheckVerdict(res.Verdict)
	if req.Status == rdom.StatusNotPointed && verdict != rdom.VerdictPointed {
		return done()
	}
	if err := s.opt.Lifecycle.ApplyDomainCheck(ctx, j.RequestID, rdom.DomainCheck{Verdict: verdict, Detail: res.Detail}); err != nil {
		return retry(err)
	}
	return done()
}

// provision creates the hostname on the first run, later runs poll it once each
func (s *Svc) provision(ctx context.Context, j dom.Job) step {
	log := logger.C(ctx)
	if s.opt.Provider == nil || !s.opt.Provider.Configured() {
		log.Warn().Msg("provider api key or zone id missing, provisioning skipped")
		return done()
	}

	var o cloudflare.Outcome
	if j.HostnameID == "" {
		req, err := s.opt.Lifecycle.BeginProvisioning(ctx, j.RequestID)
		switch {
		case perr.IsCode(err, perr.ErrorCodeNotFound), perr.IsCode(err, perr.ErrorCodeConflict):
			log.Info().Err(err).Msg("provisioning not needed")
			return done()
		case err != nil:
			return retry(err)
		}
		ok, err := s.opt.Lifecycle.RequireBureaucrat(ctx, j.RequestID)
		if err != nil {
			return retry(err)
		}
		if !ok {
			return done()
		}
		o = s.opt.Provider.Start(ctx, req.CustomDomain, s.opt.Provider.MinTLSVersion())
	} else {
		o = s.opt.Provider.Poll(ctx, j.HostnameID)
	}

	if !o.Final {
		if j.Polls < s.cfg.MaxPolls {
			log.Debug().Str("hostname_id", o.HostnameID).Int("poll", j.Polls+1).Msg("hostname still pending")
			return step{result: "reschedule", hostnameID: o.HostnameID, polls: j.Polls + 1}
		}
		o = cloudflare.Outcome{Status: cloudflare.StatusTimeout, HostnameID: o.HostnameID, Final: true}
	}

	log.Info().Str("status", o.Status).Str("hostname_id", o.HostnameID).Str("detail", o.Detail).Msg("provisioning outcome")
	res := rdom.ProvisionResult{Status: o.Status, Detail: o.Detail, VerificationErrors: o.VerificationErrors}
	if err := s.opt.Lifecycle.ApplyProvisioning(ctx, j.RequestID, res); err != nil {
		return retry(fmt.Errorf("apply provisioning outcome: %w", err))
	}
	return done()
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	perr "wikidomains/internal/platform/errors"
	rdom "wikidomains/internal/services/requests/domain"

	"github.com/robfig/cron/v3"
)

// Run leases due jobs and handles them until ctx ends
// in-flight jobs are waited for before returning
func (s *Svc) Run(ctx context.Context) error {
	if s.opt.Lifecycle == nil {
		return perr.Unavailablef("jobs worker has no request lifecycle")
	}

	if s.cfg.RecheckSchedule != "" && s.cfg.CNAMETarget != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.cfg.RecheckSchedule, func() { s.Recheck(ctx) }); err != nil {
			return perr.WithField(perr.Validationf("invalid recheck schedule %q: %v", s.cfg.RecheckSchedule, err), "recheck_schedule")
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		s.log.Info().Str("schedule", s.cfg.RecheckSchedule).Msg("notpointed recheck scheduled")
	}

	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			jobs, err := s.repo.Lease(ctx, s.cfg.WorkerID, s.cfg.QueueTakeBatch, s.cfg.Lease)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.log.Error().Err(err).Msg("lease jobs failed")
				}
				continue
			}
			s.opt.Metrics.Leased(len(jobs))
			for i := range jobs {
				sem <- struct{}{}
				j := jobs[i]
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { <-sem }()
					if err := s.Handle(ctx, j); err != nil {
						s.log.Warn().Err(err).Str("job_id", j.JobID).Msg("job bookkeeping failed")
					}
				}()
			}
		}
	}
}

// Recheck enqueues a domain check for every notpointed request
func (s *Svc) Recheck(ctx context.Context) {
	n := 0
	for _, kind := range s.cfg.Kinds {
		ids, err := s.opt.Lifecycle.Stale(ctx, kind, rdom.StatusNotPointed, s.cfg.RecheckBatch)
		if err != nil {
			if !perr.IsCode(err, perr.ErrorCodeNotFound) {
				s.log.Error().Err(err).Str("kind", string(kind)).Msg("list notpointed requests failed")
			}
			continue
		}
		for _, id := range ids {
			if err := s.Enqueue(ctx, kind, rdom.JobDomainCheck, id); err != nil {
				s.log.Error().Err(err).Int64("request_id", id).Msg("enqueue recheck failed")
				continue
			}
			n++
		}
	}
	s.log.Info().Int("enqueued", n).Msg("notpointed recheck")
}

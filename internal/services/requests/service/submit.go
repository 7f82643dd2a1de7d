package service

import (
	"context"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

// Submit validates and files a new pending request
func (s *Svc) Submit(ctx context.Context, kind domain.Kind, actor domain.Actor, in domain.SubmitInput) (domain.SubmitResult, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if actor.IsSystem() || actor.ID == 0 {
		return domain.SubmitResult{}, perr.Unauthorizedf("sign in to submit a request")
	}
	blocked, err := s.opt.Users.Blocked(ctx, actor.ID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if blocked {
		return domain.SubmitResult{}, perr.Forbiddenf("blocked users cannot submit requests")
	}

	customDomain, err := s.normalizeDomain(in.CustomDomain)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	target, err := s.resolveTarget(ctx, in.Target)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	reason, err := s.cleanReason(in.Reason)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	var req domain.Request
	err = s.tx(ctx, func(r repo.Repo) error {
		pending, err := r.HasPending(ctx, kind, target)
		if err != nil {
			return err
		}
		if pending {
			return perr.WithField(perr.DuplicateKeyf("a pending request already exists for %s", target), "target")
		}
		req, err = r.Create(ctx, domain.NewRequest{
			Kind:         kind,
			CustomDomain: customDomain,
			Target:       target,
			Reason:       reason,
			Requester:    actor,
			Private:      in.Private && p.PrivacyEnabled(),
		})
		return err
	})
	if err != nil {
		return domain.SubmitResult{}, err
	}

	logger.C(ctx).Info().
		Int64("request_id", req.ID).
		Str("kind", string(kind)).
		Str("target", req.Target).
		Str("custom_domain", req.CustomDomain).
		Msg("request submitted")
	s.opt.Metrics.Submitted(string(kind))
	s.record(ctx, domain.AuditEntry{
		LogType:   p.AuditType(req.Private),
		Action:    domain.AuditRequest,
		RequestID: req.ID,
		Kind:      kind,
		Actor:     actor,
		Target:    req.Target,
		Comment:   req.Reason,
		Params:    map[string]string{"custom_domain": req.CustomDomain},
	})

	rights := []string{p.HandleRight}
	if req.Private {
		rights = append(rights, p.ViewPrivateRight)
	}
	s.notifier.NotifyNew(ctx, Event{
		Name:    p.Event(domain.EventNewRequest),
		Request: req,
		Comment: req.Reason,
		Agent:   actor,
	}, s.opt.NotifyOnAll, rights...)

	if s.opt.CNAMETarget != "" {
		s.enqueueQuiet(ctx, kind, domain.JobDomainCheck, req.ID)
	}
	if s.opt.AutoProvision && s.opt.ProviderReady {
		s.enqueueQuiet(ctx, kind, domain.JobProvision, req.ID)
	}

	return domain.SubmitResult{Request: req, HelpURL: s.opt.HelpURL}, nil
}

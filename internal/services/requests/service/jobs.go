package service

import (
	"context"
	"fmt"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

// systemChange is one job driven mutation: optional status plus one comment by the system actor
type systemChange struct {
	status   domain.Status
	comment  string
	complete bool
}

// applySystem runs a job outcome against a request under its row lock
func (s *Svc) applySystem(ctx context.Context, id int64, decide func(p domain.Policy, cur domain.Request) (systemChange, error)) error {
	var (
		p        domain.Policy
		before   domain.Request
		after    domain.Request
		change   systemChange
		statusUp bool
		site     string
	)
	err := s.tx(ctx, func(r repo.Repo) error {
		cur, err := r.LoadForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p, err = s.Policy(cur.Kind); err != nil {
			return err
		}
		if change, err = decide(p, cur); err != nil {
			return err
		}
		before, after = cur, cur
		site = ""
		statusUp = false
		if change.status == domain.StatusPending && cur.Status != domain.StatusPending {
			// another pending request for the target keeps this one where it is
			busy, err := r.HasPending(ctx, cur.Kind, cur.Target)
			if err != nil {
				return err
			}
			if busy {
				change.status = ""
			}
		}
		if change.status != "" && change.status != cur.Status {
			if change.complete {
				if site, err = serverName(cur); err != nil {
					return err
				}
			}
			if after, err = r.Update(ctx, id, domain.Changes{Status: &change.status}); err != nil {
				return err
			}
			statusUp = true
		}
		if change.comment != "" {
			if _, err := r.AppendComment(ctx, id, p.System(), change.comment); err != nil {
				return err
			}
		}
		return s.pointSite(ctx, cur.Target, site)
	})
	if err != nil {
		return err
	}

	if site != "" {
		s.recordSite(ctx, p, after, p.System(), site)
	}
	if statusUp {
		s.recordStatus(ctx, p, after, p.System(), before.Status, change.comment)
		s.notifier.Notify(ctx, Event{
			Name:    p.Event(domain.EventStatusUpdate),
			Request: after,
			Comment: change.comment,
			Agent:   p.System(),
		})
	}
	return nil
}

// ApplyDomainCheck records a CNAME verdict on a pending or notpointed request
// a request that moved on while the check ran is left alone
func (s *Svc) ApplyDomainCheck(ctx context.Context, id int64, check domain.DomainCheck) error {
	log := logger.C(ctx)
	log.Debug().Int64("request_id", id).Str("verdict", string(check.Verdict)).Str("detail", check.Detail).Msg("apply domain check")
	return s.applySystem(ctx, id, func(p domain.Policy, cur domain.Request) (systemChange, error) {
		if cur.Status != domain.StatusPending && cur.Status != domain.StatusNotPointed {
			log.Info().Int64("request_id", id).Str("status", string(cur.Status)).Msg("domain check dropped")
			return systemChange{}, nil
		}
		out := systemChange{comment: checkComment(p, check.Verdict)}
		switch {
		case check.Verdict == domain.VerdictNotPointed:
			out.status = domain.StatusNotPointed
		case check.Verdict == domain.VerdictPointed && cur.Status == domain.StatusNotPointed && s.opt.ReopenPointed:
			out.status = domain.StatusPending
		}
		return out, nil
	})
}

// BeginProvisioning marks a request inprogress and returns it
func (s *Svc) BeginProvisioning(ctx context.Context, id int64) (domain.Request, error) {
	if err := s.applySystem(ctx, id, func(_ domain.Policy, cur domain.Request) (systemChange, error) {
		if cur.Status == domain.StatusComplete {
			return systemChange{}, perr.Conflictf("request %d is already complete", id)
		}
		return systemChange{status: domain.StatusInProgress}, nil
	}); err != nil {
		return domain.Request{}, err
	}
	return s.Repo.Load(ctx, id)
}

// RequireBureaucrat checks the requester may still change the target wiki
// on failure a permissions comment is added and the request goes back to pending
func (s *Svc) RequireBureaucrat(ctx context.Context, id int64) (bool, error) {
	req, err := s.Repo.Load(ctx, id)
	if err != nil {
		return false, err
	}
	ok, err := s.opt.Users.IsBureaucrat(ctx, req.Requester.ID, req.Target)
	if err != nil || ok {
		return ok, err
	}
	err = s.applySystem(ctx, id, func(p domain.Policy, cur domain.Request) (systemChange, error) {
		return systemChange{
			status:  domain.StatusPending,
			comment: fmt.Sprintf(msgProvPermission, p.Label, cur.Host(), cur.Target),
		}, nil
	})
	return false, err
}

// ApplyProvisioning records a provider outcome
// active completes the request and points the wiki at the domain, anything else returns it to pending
func (s *Svc) ApplyProvisioning(ctx context.Context, id int64, res domain.ProvisionResult) error {
	return s.applySystem(ctx, id, func(p domain.Policy, cur domain.Request) (systemChange, error) {
		out := systemChange{comment: provisionComment(p, cur.Host(), res)}
		if res.Active() {
			out.status = domain.StatusComplete
			out.complete = true
			return out, nil
		}
		out.status = domain.StatusPending
		return out, nil
	})
}

// SystemComment appends a comment authored by the kind's system actor
func (s *Svc) SystemComment(ctx context.Context, id int64, text string) error {
	return s.applySystem(ctx, id, func(domain.Policy, domain.Request) (systemChange, error) {
		return systemChange{comment: text}, nil
	})
}

package service

import (
	"context"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

// Edit changes request fields; a declined request is reopened
func (s *Svc) Edit(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, in domain.EditInput) (domain.EditResult, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.EditResult{}, err
	}
	c, err := s.callerFor(ctx, p, actor)
	if err != nil {
		return domain.EditResult{}, err
	}

	// validate before taking the row lock
	var want struct{ customDomain, target, reason *string }
	if in.CustomDomain != nil {
		v, err := s.normalizeDomain(*in.CustomDomain)
		if err != nil {
			return domain.EditResult{}, err
		}
		want.customDomain = &v
	}
	if in.Target != nil {
		v, err := s.resolveTarget(ctx, *in.Target)
		if err != nil {
			return domain.EditResult{}, err
		}
		want.target = &v
	}
	if in.Reason != nil {
		v, err := s.cleanReason(*in.Reason)
		if err != nil {
			return domain.EditResult{}, err
		}
		want.reason = &v
	}

	var (
		out     domain.EditResult
		from    domain.Status
		comment string
	)
	err = s.tx(ctx, func(r repo.Repo) error {
		cur, err := s.loadVisible(ctx, p, c, r, id, true)
		if err != nil {
			return err
		}
		if !c.privileged && !cur.Requester.Same(c.Actor) {
			return perr.Forbiddenf("only the requester or a request handler can edit this request")
		}
		if cur.Locked && !c.privileged {
			return perr.Lockedf("request %d is locked", id)
		}

		var (
			ch      domain.Changes
			changes []change
			fields  []string
		)
		if want.reason != nil && *want.reason != cur.Reason {
			ch.Reason = want.reason
			changes = append(changes, change{"reason", cur.Reason, *want.reason})
			fields = append(fields, "reason")
		}
		if want.customDomain != nil && *want.customDomain != cur.CustomDomain {
			ch.CustomDomain = want.customDomain
			changes = append(changes, change{"custom domain", cur.CustomDomain, *want.customDomain})
			fields = append(fields, "custom_domain")
		}
		if want.target != nil && *want.target != cur.Target {
			ch.Target = want.target
			changes = append(changes, change{"target", cur.Target, *want.target})
			fields = append(fields, "target")
		}
		if len(changes) == 0 {
			return perr.NoChangef("no changes to request %d", id)
		}

		reopen := cur.Status.Reopenable()
		if reopen {
			st := domain.StatusPending
			ch.Status = &st
		}
		target := cur.Target
		if ch.Target != nil {
			target = *ch.Target
		}
		if reopen || (cur.Status == domain.StatusPending && ch.Target != nil) {
			pending, err := r.HasPending(ctx, kind, target)
			if err != nil {
				return err
			}
			if pending {
				return perr.WithField(perr.DuplicateKeyf("a pending request already exists for %s", target), "target")
			}
		}

		next, err := r.Update(ctx, id, ch)
		if err != nil {
			return err
		}
		comment = editComment(reopen, actor.Name, changes)
		if _, err := r.AppendComment(ctx, id, p.System(), comment); err != nil {
			return err
		}
		from = cur.Status
		out = domain.EditResult{Request: next, Changed: fields, Reopened: reopen}
		return nil
	})
	if err != nil {
		return domain.EditResult{}, err
	}

	if out.Reopened {
		s.recordStatus(ctx, p, out.Request, actor, from, comment)
		s.notifier.Notify(ctx, Event{
			Name:    p.Event(domain.EventStatusUpdate),
			Request: out.Request,
			Comment: comment,
			Agent:   actor,
		})
	}
	for _, f := range out.Changed {
		if f == "custom_domain" && s.opt.CNAMETarget != "" {
			s.enqueueQuiet(ctx, kind, domain.JobDomainCheck, id)
		}
	}
	return out, nil
}

package service

import (
	"context"
	"fmt"
	"strconv"

	"wikidomains/internal/core/normalize"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

// Handle applies a moderator action: status change, lock and privacy toggles
func (s *Svc) Handle(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, in domain.HandleInput) (domain.HandleResult, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.HandleResult{}, err
	}
	c, err := s.callerFor(ctx, p, actor)
	if err != nil {
		return domain.HandleResult{}, err
	}
	if !c.privileged {
		return domain.HandleResult{}, perr.Forbiddenf("only request handlers can handle requests")
	}
	var status domain.Status
	if in.Status != "" {
		if status, err = domain.ParseStatus(in.Status); err != nil {
			return domain.HandleResult{}, err
		}
	}
	if in.Private != nil && !p.PrivacyEnabled() {
		return domain.HandleResult{}, perr.WithField(perr.Validationf("private requests are disabled"), "private")
	}
	note := normalize.Text(in.Comment)

	var (
		out          domain.HandleResult
		from         domain.Status
		trailComment string
		site         string
	)
	err = s.tx(ctx, func(r repo.Repo) error {
		cur, err := s.loadVisible(ctx, p, c, r, id, true)
		if err != nil {
			return err
		}
		from = cur.Status
		out = domain.HandleResult{}

		var ch domain.Changes
		switch {
		case status != "" && status != cur.Status:
			ch.Status = &status
			out.StatusChanged = true
		case status != "":
			out.Warnings = append(out.Warnings, fmt.Sprintf("request %d is already %s", id, status))
		}
		if in.Locked != nil && *in.Locked != cur.Locked {
			ch.Locked = in.Locked
			out.LockChanged = true
		}
		if in.Private != nil && *in.Private != cur.Private {
			ch.Private = in.Private
			out.PrivateChanged = true
		}
		if ch.Empty() {
			return perr.NoChangef("no changes to request %d", id)
		}

		site = ""
		if out.StatusChanged && status == domain.StatusComplete {
			if site, err = serverName(cur); err != nil {
				return err
			}
		}

		next, err := r.Update(ctx, id, ch)
		if err != nil {
			return err
		}
		out.Request = next

		switch {
		case out.StatusChanged:
			trailComment = statusComment(status, actor.Name, note)
			author := actor
			if note != "" {
				author = p.StatusUpdater()
			}
			_, err = r.AppendComment(ctx, id, author, trailComment)
		case note != "":
			_, err = r.AppendComment(ctx, id, actor, note)
		}
		if err != nil {
			return err
		}
		return s.pointSite(ctx, cur.Target, site)
	})
	if err != nil {
		return domain.HandleResult{}, err
	}

	if site != "" {
		s.recordSite(ctx, p, out.Request, actor, site)
	}
	if out.LockChanged || out.PrivateChanged {
		params := map[string]string{}
		if out.LockChanged {
			params["locked"] = strconv.FormatBool(out.Request.Locked)
		}
		if out.PrivateChanged {
			params["private"] = strconv.FormatBool(out.Request.Private)
		}
		s.record(ctx, domain.AuditEntry{
			LogType:   p.AuditType(out.Request.Private),
			Action:    domain.AuditSettings,
			RequestID: id,
			Kind:      kind,
			Actor:     actor,
			Target:    out.Request.Target,
			Comment:   note,
			Params:    params,
		})
	}
	if out.StatusChanged {
		s.recordStatus(ctx, p, out.Request, actor, from, note)
		s.notifier.Notify(ctx, Event{
			Name:    p.Event(domain.EventStatusUpdate),
			Request: out.Request,
			Comment: trailComment,
			Agent:   actor,
		})
	}
	return out, nil
}

// serverName is the wiki server name a completed request points at
func serverName(req domain.Request) (string, error) {
	host := req.Host()
	if host == "" {
		return "", perr.Validationf("request %d has no usable custom domain", req.ID)
	}
	return "https://" + host, nil
}

// pointSite repoints the wiki, it must be the last write of the transaction
// the site registry is not part of it, so nothing after it may fail
func (s *Svc) pointSite(ctx context.Context, dbname, site string) error {
	if site == "" {
		return nil
	}
	if err := s.opt.Sites.SetServerName(ctx, dbname, site); err != nil {
		return perr.WithOp(err, "set server name")
	}
	return nil
}

// recordSite writes the ManageWiki entry for a committed completion
func (s *Svc) recordSite(ctx context.Context, p domain.Policy, req domain.Request, actor domain.Actor, site string) {
	params := map[string]string{"wiki": req.Target, "changes": "servername", "servername": site}
	if s.opt.CentralWiki != "" {
		params["central"] = s.opt.CentralWiki
	}
	s.record(ctx, domain.AuditEntry{
		LogType:   domain.AuditManageWiki,
		Action:    domain.AuditSettings,
		RequestID: req.ID,
		Kind:      p.Kind,
		Actor:     actor,
		Target:    req.Target,
		Comment:   "changed servername",
		Params:    params,
	})
}

// SetLocked toggles the lock flag
func (s *Svc) SetLocked(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, locked bool) (domain.HandleResult, error) {
	return s.Handle(ctx, kind, actor, id, domain.HandleInput{Locked: &locked})
}

// SetPrivate toggles the privacy flag
func (s *Svc) SetPrivate(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, private bool) (domain.HandleResult, error) {
	return s.Handle(ctx, kind, actor, id, domain.HandleInput{Private: &private})
}

// ChangeStatus moves a request to status with an optional moderator comment
func (s *Svc) ChangeStatus(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, status domain.Status, comment string) (domain.HandleResult, error) {
	return s.Handle(ctx, kind, actor, id, domain.HandleInput{Status: string(status), Comment: comment})
}

// Provision queues the provisioning job for a request
func (s *Svc) Provision(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64) (domain.Enqueued, error) {
	if !s.opt.ProviderReady {
		return domain.Enqueued{}, perr.Unavailablef("the provisioning provider is not configured")
	}
	return s.queueFor(ctx, kind, actor, id, domain.JobProvision)
}

// RequestCheck queues a CNAME check for a request
func (s *Svc) RequestCheck(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64) (domain.Enqueued, error) {
	if s.opt.CNAMETarget == "" {
		return domain.Enqueued{}, perr.Unavailablef("no CNAME target is configured")
	}
	return s.queueFor(ctx, kind, actor, id, domain.JobDomainCheck)
}

func (s *Svc) queueFor(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, jt domain.JobType) (domain.Enqueued, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.Enqueued{}, err
	}
	c, err := s.callerFor(ctx, p, actor)
	if err != nil {
		return domain.Enqueued{}, err
	}
	if !c.privileged {
		return domain.Enqueued{}, perr.Forbiddenf("only request handlers can queue jobs")
	}
	if _, err := s.loadVisible(ctx, p, c, s.Repo, id, false); err != nil {
		return domain.Enqueued{}, err
	}
	if err := s.enqueue(ctx, kind, jt, id); err != nil {
		return domain.Enqueued{}, err
	}
	return domain.Enqueued{RequestID: id, Job: jt}, nil
}

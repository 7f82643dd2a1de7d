package service

import (
	"context"

	"wikidomains/internal/core/normalize"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

// AddComment appends a comment by the requester or a request handler
func (s *Svc) AddComment(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, text string) (domain.Comment, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.Comment{}, err
	}
	text = normalize.Text(text)
	if text == "" {
		return domain.Comment{}, perr.WithField(perr.Validationf("comment must not be empty"), "text")
	}
	c, err := s.callerFor(ctx, p, actor)
	if err != nil {
		return domain.Comment{}, err
	}

	var (
		req domain.Request
		out domain.Comment
	)
	err = s.tx(ctx, func(r repo.Repo) error {
		req, err = s.loadVisible(ctx, p, c, r, id, true)
		if err != nil {
			return err
		}
		if !c.privileged && !c.IsSystem() && !req.Requester.Same(c.Actor) {
			return perr.Forbiddenf("only the requester or a request handler can comment")
		}
		if req.Locked && !c.privileged && !c.IsSystem() {
			return perr.Lockedf("request %d is locked", id)
		}
		out, err = r.AppendComment(ctx, id, actor, text)
		return err
	})
	if err != nil {
		return domain.Comment{}, err
	}

	if !actor.IsSystem() {
		s.notifier.Notify(ctx, Event{
			Name:    p.Event(domain.EventComment),
			Request: req,
			Comment: text,
			Agent:   actor,
		})
	}
	return out, nil
}

package service

import (
	"context"
	"strings"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

// Get returns one request the viewer may see
func (s *Svc) Get(ctx context.Context, kind domain.Kind, viewer domain.Actor, id int64) (domain.Request, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.Request{}, err
	}
	c, err := s.callerFor(ctx, p, viewer)
	if err != nil {
		return domain.Request{}, err
	}
	return s.loadVisible(ctx, p, c, s.Repo, id, false)
}

// Comments returns the trail of a request, newest first
// locked requests stay readable
func (s *Svc) Comments(ctx context.Context, kind domain.Kind, viewer domain.Actor, id int64) ([]domain.Comment, error) {
	if _, err := s.Get(ctx, kind, viewer, id); err != nil {
		return nil, err
	}
	return s.Repo.ListComments(ctx, id)
}

// List pages through the queue of one kind
func (s *Svc) List(ctx context.Context, kind domain.Kind, viewer domain.Actor, f domain.Filter) (domain.ListResult, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.ListResult{}, err
	}
	c, err := s.callerFor(ctx, p, viewer)
	if err != nil {
		return domain.ListResult{}, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.ListResult{}, perr.WithField(perr.Validationf("unknown status %q", f.Status), "status")
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = repo.DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Kind = kind
	f.ViewerID = 0
	if !c.IsSystem() {
		f.ViewerID = c.ID
	}
	f.IncludePrivate = !p.PrivacyEnabled() || c.viewPrivate

	items, err := s.Repo.List(ctx, f)
	if err != nil {
		return domain.ListResult{}, err
	}
	if items == nil {
		items = []domain.Request{}
	}
	return domain.ListResult{Items: items, Limit: f.Limit, Offset: f.Offset}, nil
}

// Command renders the operator script for a request
// placeholders are {IP}, {wiki} and {customdomain}
func (s *Svc) Command(ctx context.Context, kind domain.Kind, viewer domain.Actor, id int64) (domain.CommandOutput, error) {
	p, err := s.Policy(kind)
	if err != nil {
		return domain.CommandOutput{}, err
	}
	if s.opt.ScriptCommand == "" {
		return domain.CommandOutput{}, perr.NotFoundf("no operator command is configured")
	}
	c, err := s.callerFor(ctx, p, viewer)
	if err != nil {
		return domain.CommandOutput{}, err
	}
	if !c.privileged {
		return domain.CommandOutput{}, perr.Forbiddenf("only request handlers can view the operator command")
	}
	req, err := s.loadVisible(ctx, p, c, s.Repo, id, false)
	if err != nil {
		return domain.CommandOutput{}, err
	}
	cmd := strings.NewReplacer(
		"{IP}", s.opt.ServerIP,
		"{wiki}", req.Target,
		"{customdomain}", req.Host(),
	).Replace(s.opt.ScriptCommand)
	return domain.CommandOutput{Command: cmd}, nil
}

// Load fetches a request regardless of visibility, for jobs
func (s *Svc) Load(ctx context.Context, id int64) (domain.Request, error) {
	return s.Repo.Load(ctx, id)
}

// Stale lists ids of requests of kind sitting in status, for sweeps
func (s *Svc) Stale(ctx context.Context, kind domain.Kind, status domain.Status, limit int) ([]int64, error) {
	if _, err := s.Policy(kind); err != nil {
		return nil, err
	}
	return s.Repo.IDsByStatus(ctx, kind, status, limit)
}

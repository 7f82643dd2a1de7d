// Package service implements the request lifecycle for every request kind
package service

import (
	"context"
	"time"

	"wikidomains/internal/modkit/repokit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

// Service is the lifecycle surface used by the http layer and the job worker
type Service interface {
	Submit(ctx context.Context, kind domain.Kind, actor domain.Actor, in domain.SubmitInput) (domain.SubmitResult, error)
	Get(ctx context.Context, kind domain.Kind, viewer domain.Actor, id int64) (domain.Request, error)
	Comments(ctx context.Context, kind domain.Kind, viewer domain.Actor, id int64) ([]domain.Comment, error)
	List(ctx context.Context, kind domain.Kind, viewer domain.Actor, f domain.Filter) (domain.ListResult, error)
	Command(ctx context.Context, kind domain.Kind, viewer domain.Actor, id int64) (domain.CommandOutput, error)

	Edit(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, in domain.EditInput) (domain.EditResult, error)
	AddComment(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, text string) (domain.Comment, error)
	Handle(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64, in domain.HandleInput) (domain.HandleResult, error)
	Provision(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64) (domain.Enqueued, error)
	RequestCheck(ctx context.Context, kind domain.Kind, actor domain.Actor, id int64) (domain.Enqueued, error)

	JobPort
}

// JobPort is the system side of the lifecycle, driven by background jobs
type JobPort interface {
	Load(ctx context.Context, id int64) (domain.Request, error)
	ApplyDomainCheck(ctx context.Context, id int64, check domain.DomainCheck) error
	BeginProvisioning(ctx context.Context, id int64) (domain.Request, error)
	RequireBureaucrat(ctx context.Context, id int64) (bool, error)
	ApplyProvisioning(ctx context.Context, id int64, res domain.ProvisionResult) error
	SystemComment(ctx context.Context, id int64, text string) error
	Stale(ctx context.Context, kind domain.Kind, status domain.Status, limit int) ([]int64, error)
}

// Options configure the lifecycle
type Options struct {
	// Sites and Users are required
	Sites domain.SiteConfigurator
	Users domain.UserDirectory

	// Audit, Sink and Enqueuer are optional
	Audit    domain.AuditLog
	Sink     domain.NotificationSink
	Enqueuer domain.Enqueuer

	Metrics *metrics.Metrics
	Now     func() time.Time

	Kinds             []domain.Kind
	Privacy           bool
	CentralWiki       string
	DatabaseSuffix    string
	Subdomain         string
	DisallowedDomains []string
	NotifyOnAll       []string
	HelpURL           string
	RequireReason     bool
	CNAMETarget       string
	AutoProvision     bool
	ProviderReady     bool
	// ReopenPointed moves a notpointed request back to pending on a pointed verdict
	ReopenPointed     bool
	ScriptCommand     string
	ServerIP          string

	// transaction knobs
	LockTimeout time.Duration
	TxAttempts  int

	// SyncNotify delivers notifications before returning
	SyncNotify    bool
	NotifyTimeout time.Duration
}

// Svc implements Service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	opt      Options
	policies map[domain.Kind]domain.Policy
	notifier *Dispatcher
	audit    domain.AuditLog
	now      func() time.Time
}

var _ Service = (*Svc)(nil)

// New constructs the lifecycle service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opt Options) *Svc {
	if db == nil {
		panic("requests.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("requests.Service requires a non nil Repo binder")
	}
	if opt.Sites == nil {
		panic("requests.Service requires a non nil SiteConfigurator")
	}
	if opt.Users == nil {
		panic("requests.Service requires a non nil UserDirectory")
	}
	if len(opt.Kinds) == 0 {
		opt.Kinds = domain.Kinds
	}
	if opt.TxAttempts <= 0 {
		opt.TxAttempts = 3
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}

	policies := make(map[domain.Kind]domain.Policy, len(opt.Kinds))
	for _, k := range opt.Kinds {
		policies[k] = domain.MustPolicy(k).WithPrivacy(opt.Privacy)
	}

	audit := opt.Audit
	if audit == nil {
		audit = nopAudit{}
	}

	r := repokit.MustBind("requests", binder, db)
	return &Svc{
		Repo:     r,
		binder:   binder,
		db:       repokit.WithBeginHooks(db, repokit.LockTimeout(opt.LockTimeout)),
		opt:      opt,
		policies: policies,
		audit:    audit,
		now:      opt.Now,
		notifier: NewDispatcher(DispatcherOptions{
			Sink:    opt.Sink,
			Users:   opt.Users,
			Authors: r.CommentAuthors,
			Metrics: opt.Metrics,
			Sync:    opt.SyncNotify,
			Timeout: opt.NotifyTimeout,
		}),
	}
}

// Notifier exposes the dispatcher so callers can drain it on shutdown
func (s *Svc) Notifier() *Dispatcher { return s.notifier }

// Policy returns the policy of an enabled kind
func (s *Svc) Policy(kind domain.Kind) (domain.Policy, error) {
	p, ok := s.policies[kind]
	if !ok {
		return domain.Policy{}, perr.NotFoundf("request kind %q is not enabled", kind)
	}
	return p, nil
}

// tx runs fn against a repo bound to one transaction, retrying lock and serialization failures
func (s *Svc) tx(ctx context.Context, fn func(r repo.Repo) error) error {
	return repokit.WithTxRetry(ctx, s.db, s.opt.TxAttempts, func(q repokit.Queryer) error {
		return fn(s.binder.Bind(q))
	})
}

// caller is an actor with the rights that matter for one kind
type caller struct {
	domain.Actor
	privileged  bool
	viewPrivate bool
}

func (s *Svc) callerFor(ctx context.Context, p domain.Policy, a domain.Actor) (caller, error) {
	c := caller{Actor: a}
	if a.IsSystem() || a.ID == 0 {
		return c, nil
	}
	ok, err := s.opt.Users.HasRight(ctx, a.ID, p.HandleRight)
	if err != nil {
		return c, err
	}
	c.privileged = ok
	if p.PrivacyEnabled() {
		if c.viewPrivate, err = s.opt.Users.HasRight(ctx, a.ID, p.ViewPrivateRight); err != nil {
			return c, err
		}
	}
	return c, nil
}

// visible reports whether c may see req at all
func visible(p domain.Policy, c caller, req domain.Request) bool {
	if !req.Private || !p.PrivacyEnabled() {
		return true
	}
	return c.viewPrivate || req.Requester.Same(c.Actor)
}

// loadVisible loads a request of kind and hides it from callers who may not see it
func (s *Svc) loadVisible(ctx context.Context, p domain.Policy, c caller, r repo.Repo, id int64, lock bool) (domain.Request, error) {
	var (
		req domain.Request
		err error
	)
	if lock {
		req, err = r.LoadForUpdate(ctx, id)
	} else {
		req, err = r.Load(ctx, id)
	}
	if err != nil {
		return domain.Request{}, err
	}
	if req.Kind != p.Kind || !visible(p, c, req) {
		return domain.Request{}, perr.NotFoundf("request %d not found", id)
	}
	return req, nil
}

func (s *Svc) recordStatus(ctx context.Context, p domain.Policy, req domain.Request, actor domain.Actor, from domain.Status, comment string) {
	s.opt.Metrics.Transition(string(p.Kind), string(from), string(req.Status))
	s.record(ctx, domain.AuditEntry{
		LogType:   p.AuditType(req.Private),
		Action:    domain.AuditStatusUpdate,
		RequestID: req.ID,
		Kind:      p.Kind,
		Actor:     actor,
		Target:    req.Target,
		Comment:   comment,
		Params:    map[string]string{"status": string(req.Status), "previous": string(from)},
	})
}

// record writes an audit entry after commit, failures are logged
func (s *Svc) record(ctx context.Context, e domain.AuditEntry) {
	if e.At.IsZero() {
		e.At = s.now().UTC()
	}
	if err := s.audit.Record(ctx, e); err != nil {
		logger.C(ctx).Warn().Err(err).Int64("request_id", e.RequestID).Str("action", e.Action).Msg("audit write failed")
	}
}

func (s *Svc) enqueue(ctx context.Context, kind domain.Kind, jt domain.JobType, id int64) error {
	if s.opt.Enqueuer == nil {
		return perr.Unavailablef("background jobs are not configured")
	}
	return s.opt.Enqueuer.Enqueue(ctx, kind, jt, id)
}

// enqueueQuiet is enqueue for follow ups that must not fail the caller
func (s *Svc) enqueueQuiet(ctx context.Context, kind domain.Kind, jt domain.JobType, id int64) {
	if s.opt.Enqueuer == nil {
		return
	}
	if err := s.opt.Enqueuer.Enqueue(ctx, kind, jt, id); err != nil {
		logger.C(ctx).Warn().Err(err).Int64("request_id", id).Str("job", string(jt)).Msg("enqueue failed")
	}
}

type nopAudit struct{}

func (nopAudit) Record(context.Context, domain.AuditEntry) error { return nil }

package service

import (
	"context"
	"sync"
	"time"

	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
	"wikidomains/internal/services/requests/domain"
)

// DispatcherOptions configure a Dispatcher
type DispatcherOptions struct {
	Sink    domain.NotificationSink
	Users   domain.UserDirectory
	Authors func(ctx context.Context, requestID int64) ([]domain.Actor, error)
	Metrics *metrics.Metrics

	// Sync delivers inline, otherwise delivery runs on a detached goroutine bounded by Timeout
	Sync    bool
	Timeout time.Duration
}

// Dispatcher fans request events out to involved users
// delivery is best effort, failures are logged and counted
type Dispatcher struct {
	opt DispatcherOptions
	wg  sync.WaitGroup
}

// NewDispatcher builds a dispatcher, a nil Sink drops everything
func NewDispatcher(opt DispatcherOptions) *Dispatcher {
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	return &Dispatcher{opt: opt}
}

// Event is one thing that happened to a request
type Event struct {
	Name    string
	Request domain.Request
	Comment string
	Agent   domain.Actor
}

// Notify delivers ev to the requester and every comment author except the agent
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	d.dispatch(ctx, ev, func(ctx context.Context) ([]domain.Actor, error) {
		return d.involved(ctx, ev)
	})
}

// NotifyNew delivers a new-request event to the named watchers who hold one of rights
func (d *Dispatcher) NotifyNew(ctx context.Context, ev Event, watchers []string, rights ...string) {
	if len(watchers) == 0 {
		return
	}
	d.dispatch(ctx, ev, func(ctx context.Context) ([]domain.Actor, error) {
		return d.watchers(ctx, ev, watchers, rights)
	})
}

// Wait blocks until pending asynchronous deliveries finish
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) dispatch(ctx context.Context, ev Event, recipients func(context.Context) ([]domain.Actor, error)) {
	if d.opt.Sink == nil {
		return
	}
	run := func(ctx context.Context) {
		to, err := recipients(ctx)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Int64("request_id", ev.Request.ID).Str("event", ev.Name).Msg("resolve notification recipients")
			return
		}
		for _, r := range to {
			d.send(ctx, ev, r)
		}
	}
	if d.opt.Sync {
		run(ctx)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opt.Timeout)
		defer cancel()
		run(cctx)
	}()
}

func (d *Dispatcher) send(ctx context.Context, ev Event, to domain.Actor) {
	err := d.opt.Sink.Send(ctx, domain.Notification{
		Event:     ev.Name,
		RequestID: ev.Request.ID,
		Kind:      ev.Request.Kind,
		Comment:   ev.Comment,
		Agent:     ev.Agent,
		Recipient: to,
	})
	d.opt.Metrics.Notified(ev.Name, err)
	if err != nil {
		logger.C(ctx).Warn().Err(err).
			Int64("request_id", ev.Request.ID).
			Str("event", ev.Name).
			Int64("recipient", to.ID).
			Msg("notification delivery failed")
	}
}

// involved is requester plus comment authors, minus the agent, users only, deduplicated
func (d *Dispatcher) involved(ctx context.Context, ev Event) ([]domain.Actor, error) {
	cands := []domain.Actor{ev.Request.Requester}
	if d.opt.Authors != nil {
		authors, err := d.opt.Authors(ctx, ev.Request.ID)
		if err != nil {
			return nil, err
		}
		cands = append(cands, authors...)
	}
	return filterRecipients(cands, ev.Agent), nil
}

func (d *Dispatcher) watchers(ctx context.Context, ev Event, names []string, rights []string) ([]domain.Actor, error) {
	if d.opt.Users == nil {
		return nil, nil
	}
	var cands []domain.Actor
	for _, name := range names {
		a, ok, err := d.opt.Users.ByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.C(ctx).Debug().Str("watcher", name).Msg("notify watcher not found")
			continue
		}
		allowed := true
		for _, right := range rights {
			if right == "" {
				continue
			}
			has, err := d.opt.Users.HasRight(ctx, a.ID, right)
			if err != nil {
				return nil, err
			}
			if !has {
				allowed = false
				break
			}
		}
		if allowed {
			cands = append(cands, a)
		}
	}
	return filterRecipients(cands, ev.Agent), nil
}

func filterRecipients(cands []domain.Actor, agent domain.Actor) []domain.Actor {
	seen := make(map[int64]struct{}, len(cands))
	out := make([]domain.Actor, 0, len(cands))
	for _, a := range cands {
		if a.IsSystem() || a.ID == 0 || a.Same(agent) {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Package store opens the optional backends (postgres, clickhouse, redis) behind
// small interfaces so repos and tests never touch a driver directly
package store

import (
	"context"
	"errors"
	"fmt"

	"wikidomains/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Store holds whichever backends are enabled; disabled ones stay nil
type Store struct {
	Log logger.Logger

	PG  TxRunner      // requests, jobs, sites and users
	CH  Clickhouse    // audit events, optional
	RDS *redis.Client // notification fanout, optional
}

// Row is a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set; Close must be called
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports what a write did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is what repos run sql against, a pool or a transaction
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner can also run fn in one transaction, committing when fn returns nil
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar store surface the audit log needs
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Open connects every backend cfg enables, in pg, ch, redis order.
// On failure the backends already opened are closed again
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	backends := []struct {
		name string
		on   bool
		open func() error
	}{
		{"pg", cfg.PG.Enabled && s.PG == nil, func() (err error) { s.PG, err = openPG(ctx, cfg, s); return err }},
		{"ch", cfg.CH.Enabled, func() (err error) { s.CH, err = openCH(ctx, cfg, s); return err }},
		{"redis", cfg.RDS.Enabled, func() (err error) { s.RDS, err = openRedis(ctx, cfg); return err }},
	}
	for _, b := range backends {
		if !b.on {
			continue
		}
		if err := b.open(); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("store %s: %w", b.name, err)
		}
		s.Log.Debug().Str("backend", b.name).Str("app", cfg.AppName).Msg("store backend open")
	}
	return s, nil
}

type namedPinger struct {
	name string
	ping func(context.Context) error
}

// pingers lists the open backends that can report readiness
func (s *Store) pingers() []namedPinger {
	var out []namedPinger
	if p, ok := s.PG.(Pinger); ok {
		out = append(out, namedPinger{"pg", p.Ping})
	}
	if p, ok := s.CH.(Pinger); ok {
		out = append(out, namedPinger{"ch", p.Ping})
	}
	if s.RDS != nil {
		rds := s.RDS
		out = append(out, namedPinger{"redis", func(ctx context.Context) error { return rds.Ping(ctx).Err() }})
	}
	return out
}

// Guard pings every open backend and joins the failures, each prefixed with its name
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for _, p := range s.pingers() {
		if err := p.ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases open backends in reverse open order; nil backends are skipped
func (s *Store) Close(_ context.Context) error {
	var closers []func() error
	if c, ok := s.PG.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}
	if s.CH != nil {
		closers = append(closers, s.CH.Close)
	}
	if s.RDS != nil {
		closers = append(closers, s.RDS.Close)
	}

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

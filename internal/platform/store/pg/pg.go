// Package pg opens the pgxpool behind the request store
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the subset of pool settings we expose
type Config struct {
	URL      string
	AppName  string
	MaxConns int32
	SlowMs   int
}

// PG holds the pool plus the statement tracer the sql adapter reports to
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	Slow   time.Duration
}

// Option adjusts Open
type Option func(*opener)

type opener struct {
	tracer QueryTracer
	tune   []func(*pgxpool.Config)
}

// WithTracer reports every statement to t
func WithTracer(t QueryTracer) Option { return func(o *opener) { o.tracer = t } }

// WithPoolConfig edits the parsed pool config before the pool is built
func WithPoolConfig(fn func(*pgxpool.Config)) Option {
	return func(o *opener) { o.tune = append(o.tune, fn) }
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and builds a lazy pool, nothing is dialed until first use
func Open(ctx context.Context, cfg Config, opts ...Option) (*PG, error) {
	var o opener
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.AppName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	for _, fn := range o.tune {
		fn(pc)
	}

	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, err
	}
	return &PG{
		Pool:   pool,
		Tracer: o.tracer,
		Slow:   time.Duration(cfg.SlowMs) * time.Millisecond,
	}, nil
}

// Close is safe on a nil client
func (p *PG) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}

package store

import (
	"context"
	"errors"
	"time"

	"wikidomains/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxConn is what a pool and a pgx.Tx have in common
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// sqlConn is a RowQuerier over pgx that reports each statement to the tracer
type sqlConn struct {
	c      pgxConn
	tracer pg.QueryTracer
	slow   time.Duration
}

func (s sqlConn) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	done := s.trace(ctx, sql, args)
	ct, err := s.c.Exec(ctx, sql, args...)
	done(err)
	return ct, err
}

func (s sqlConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	done := s.trace(ctx, sql, args)
	rs, err := s.c.Query(ctx, sql, args...)
	done(err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

// QueryRow reports once Scan has run; no rows is not a failure here
func (s sqlConn) QueryRow(ctx context.Context, sql string, args ...any) Row {
	done := s.trace(ctx, sql, args)
	return scanHook{Row: s.c.QueryRow(ctx, sql, args...), done: func(err error) {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		done(err)
	}}
}

// trace starts the clock for one statement, the returned func reports it
func (s sqlConn) trace(ctx context.Context, sql string, args []any) func(error) {
	if s.tracer == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		took := time.Since(start)
		s.tracer.OnQuery(ctx, pg.QueryEvent{
			SQL:     sql,
			Args:    args,
			Elapsed: took,
			Err:     err,
			Slow:    s.slow > 0 && took >= s.slow,
		})
	}
}

// pgStore is the postgres TxRunner handed to repos
type pgStore struct {
	sqlConn
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgStore {
	return &pgStore{sqlConn: sqlConn{c: p.Pool, tracer: p.Tracer, slow: p.Slow}, p: p}
}

func (a *pgStore) Ping(ctx context.Context) error {
	if a == nil || a.p == nil || a.p.Pool == nil {
		return errors.New("pg: not open")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgStore) Close() error {
	a.p.Close()
	return nil
}

// Tx commits when fn returns nil and rolls back on an error or a panic
func (a *pgStore) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(sqlConn{c: tx, tracer: a.tracer, slow: a.slow}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

type scanHook struct {
	pgx.Row
	done func(error)
}

func (h scanHook) Scan(dst ...any) error {
	err := h.Row.Scan(dst...)
	h.done(err)
	return err
}

type pgxRows struct{ pgx.Rows }

func (r pgxRows) Columns() []string {
	fields := r.FieldDescriptions()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"wikidomains/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type recTracer struct{ evs []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.evs = append(r.evs, ev) }

type scanFunc func(dst ...any) error

func (f scanFunc) Scan(dst ...any) error { return f(dst...) }

type stubConn struct {
	execErr error
	rowErr  error
}

func (c stubConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("UPDATE 1"), c.execErr
}

func (c stubConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no rows here")
}

func (c stubConn) QueryRow(context.Context, string, ...any) pgx.Row {
	return scanFunc(func(dst ...any) error { return c.rowErr })
}

func TestSQLConnTracesStatements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tr := &recTracer{}
	s := sqlConn{c: stubConn{}, tracer: tr, slow: time.Hour}

	ct, err := s.Exec(ctx, "UPDATE domain_requests SET status = $1", "pending")
	if err != nil || ct.RowsAffected() != 1 {
		t.Fatalf("Exec = %v, %v", ct, err)
	}
	if _, err := s.Query(ctx, "SELECT 1"); err == nil {
		t.Fatalf("Query error swallowed")
	}
	if err := s.QueryRow(ctx, "SELECT id FROM domain_requests").Scan(new(int64)); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(tr.evs) != 3 {
		t.Fatalf("events = %d", len(tr.evs))
	}
	if tr.evs[0].Args[0] != "pending" || tr.evs[0].Err != nil || tr.evs[0].Slow {
		t.Fatalf("exec event %+v", tr.evs[0])
	}
	if tr.evs[1].Err == nil {
		t.Fatalf("query failure not traced")
	}
}

func TestSQLConnNoRowsIsNotAFailure(t *testing.T) {
	t.Parallel()

	tr := &recTracer{}
	s := sqlConn{c: stubConn{rowErr: pgx.ErrNoRows}, tracer: tr}
	if err := s.QueryRow(context.Background(), "SELECT 1").Scan(new(int)); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("Scan = %v", err)
	}
	if len(tr.evs) != 1 || tr.evs[0].Err != nil || tr.evs[0].Slow {
		t.Fatalf("events %+v", tr.evs)
	}
}

func TestSQLConnWithoutTracer(t *testing.T) {
	t.Parallel()

	s := sqlConn{c: stubConn{execErr: errors.New("boom")}}
	if _, err := s.Exec(context.Background(), "DELETE FROM jobs"); err == nil {
		t.Fatalf("Exec error swallowed")
	}
}

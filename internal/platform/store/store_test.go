package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeTx struct {
	fakeQuerier
	pingErr error
	closed  bool
}

func (f *fakeTx) Tx(ctx context.Context, fn func(q RowQuerier) error) error { return fn(f) }
func (f *fakeTx) Ping(context.Context) error                                { return f.pingErr }
func (f *fakeTx) Close() error                                              { f.closed = true; return nil }

func TestGuard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var nilStore *Store
	if err := nilStore.Guard(ctx); err == nil {
		t.Fatalf("nil store should fail")
	}
	if err := (&Store{}).Guard(ctx); err != nil {
		t.Fatalf("empty store: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := &Store{PG: &fakeTx{}, RDS: rdb}
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("healthy store: %v", err)
	}

	s.PG = &fakeTx{pingErr: errors.New("down")}
	mr.Close()
	err := s.Guard(ctx)
	if err == nil || !strings.Contains(err.Error(), "pg: down") || !strings.Contains(err.Error(), "redis:") {
		t.Fatalf("Guard = %v", err)
	}
}

func TestOpenRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), Config{RDS: RedisConfig{Enabled: true, Addr: mr.Addr()}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.RDS == nil || s.PG != nil || s.CH != nil {
		t.Fatalf("unexpected seams %+v", s)
	}
	if err := s.RDS.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenRedisUnreachable(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{RDS: RedisConfig{Enabled: true, Addr: "127.0.0.1:1"}})
	if err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestWithPGAndClose(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	// an enabled pg with a supplied runner is never dialed
	cfg := Config{PG: PGConfig{Enabled: true, URL: "postgres://nobody@127.0.0.1:1/none"}}
	s, err := Open(context.Background(), cfg, WithPG(tx))
	if err != nil || s.PG != tx {
		t.Fatalf("Open = %+v %v", s, err)
	}
	if err := s.Close(context.Background()); err != nil || !tx.closed {
		t.Fatalf("Close = %v closed=%v", err, tx.closed)
	}
}

package sites

import (
	"context"
	"errors"
	"reflect"
	"testing"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/store"

	"github.com/jackc/pgx/v5"
)

type fakeTag int64

func (f fakeTag) String() string      { return "UPDATE" }
func (f fakeTag) RowsAffected() int64 { return int64(f) }

type valueRow struct {
	v   any
	err error
}

func (r valueRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	reflect.ValueOf(dest[0]).Elem().Set(reflect.ValueOf(r.v))
	return nil
}

// fakeDB answers QueryRow with row and Exec with affected
type fakeDB struct {
	row      valueRow
	affected int64
	execErr  error
	args     []any
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (store.CommandTag, error) {
	f.args = args
	return fakeTag(f.affected), f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) store.Row {
	f.args = args
	return f.row
}

func TestExists(t *testing.T) {
	t.Parallel()

	db := &fakeDB{row: valueRow{v: true}}
	ok, err := New(db).Exists(context.Background(), "examplewiki")
	if err != nil || !ok || db.args[0] != "examplewiki" {
		t.Fatalf("Exists = %v %v %v", ok, err, db.args)
	}

	db = &fakeDB{row: valueRow{err: errors.New("conn reset")}}
	if _, err := New(db).Exists(context.Background(), "x"); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
}

func TestSetServerName(t *testing.T) {
	t.Parallel()

	db := &fakeDB{affected: 1}
	if err := New(db).SetServerName(context.Background(), "examplewiki", "https://wiki.example.org"); err != nil {
		t.Fatalf("SetServerName: %v", err)
	}
	if db.args[0] != "examplewiki" || db.args[1] != "https://wiki.example.org" {
		t.Fatalf("args = %v", db.args)
	}

	db = &fakeDB{affected: 0}
	if err := New(db).SetServerName(context.Background(), "ghostwiki", "https://x.org"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing site = %v", err)
	}
}

func TestServerName(t *testing.T) {
	t.Parallel()

	db := &fakeDB{row: valueRow{err: pgx.ErrNoRows}}
	if _, err := New(db).ServerName(context.Background(), "ghostwiki"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v", err)
	}
	db = &fakeDB{row: valueRow{v: "https://a.org"}}
	if s, err := New(db).ServerName(context.Background(), "a"); err != nil || s != "https://a.org" {
		t.Fatalf("ServerName = %q %v", s, err)
	}
}

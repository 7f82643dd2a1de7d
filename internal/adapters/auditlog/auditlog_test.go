package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"wikidomains/internal/platform/store"
	"wikidomains/internal/services/requests/domain"
)

type fakeCH struct {
	table   string
	rows    [][]any
	execSQL string
	err     error
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.table = table
	f.rows = append(f.rows, rows...)
	return f.err
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error { f.execSQL = sql; return f.err }

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }

func (f *fakeCH) Close() error { return nil }

func TestRecord(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{}
	l, err := NewClickhouse(ch, "")
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	err = l.Record(context.Background(), domain.AuditEntry{
		At:        at,
		LogType:   "requestssl",
		Action:    domain.AuditStatusUpdate,
		RequestID: 9,
		Kind:      domain.KindSSL,
		Actor:     domain.UserActor(2, "Bob"),
		Target:    "examplewiki",
		Params:    map[string]string{"status": "complete"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if ch.table != DefaultTable || len(ch.rows) != 1 {
		t.Fatalf("insert = %s %v", ch.table, ch.rows)
	}
	row := ch.rows[0]
	if row[0].(time.Time).Location() != time.UTC || row[3] != "ssl" || row[4] != int64(9) || row[6] != "Bob" {
		t.Fatalf("row = %v", row)
	}
	var params map[string]string
	if err := json.Unmarshal([]byte(row[9].(string)), &params); err != nil || params["status"] != "complete" {
		t.Fatalf("params = %v %v", row[9], err)
	}
}

func TestRecordDefaultsAndErrors(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{err: errors.New("down")}
	l, _ := NewClickhouse(ch, "audit.events")
	if err := l.Record(context.Background(), domain.AuditEntry{}); err == nil {
		t.Fatal("insert error swallowed")
	}
	if ch.rows[0][9] != "{}" || ch.rows[0][0].(time.Time).IsZero() {
		t.Fatalf("defaults = %v", ch.rows[0])
	}

	if _, err := NewClickhouse(ch, "x; DROP TABLE y"); err == nil {
		t.Fatal("bad table name accepted")
	}
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	ch := &fakeCH{}
	l, _ := NewClickhouse(ch, "db.audit")
	if err := l.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ch.execSQL, "CREATE TABLE IF NOT EXISTS db.audit") {
		t.Fatalf("sql = %s", ch.execSQL)
	}
	if err := NewLog().Record(context.Background(), domain.AuditEntry{Params: map[string]string{"a": "b"}}); err != nil {
		t.Fatal(err)
	}
}

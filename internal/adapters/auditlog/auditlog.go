// Package auditlog writes request audit entries to ClickHouse
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/store"
	"wikidomains/internal/services/requests/domain"
)

// DefaultTable holds one row per entry
const DefaultTable = "wikidomains.audit_events"

var tableRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CH records entries with one Insert per entry
type CH struct {
	ch    store.Clickhouse
	table string
}

// NewClickhouse returns a CH log writing to table
func NewClickhouse(ch store.Clickhouse, table string) (*CH, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableRE.MatchString(table) {
		return nil, fmt.Errorf("auditlog: invalid table name %q", table)
	}
	return &CH{ch: ch, table: table}, nil
}

// EnsureSchema creates the table when missing
func (c *CH) EnsureSchema(ctx context.Context) error {
	return c.ch.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+c.table+` (
			at          DateTime64(3, 'UTC'),
			log_type    LowCardinality(String),
			action      LowCardinality(String),
			kind        LowCardinality(String),
			request_id  Int64,
			actor_id    Int64,
			actor_name  String,
			target      String,
			comment     String,
			params      String
		)
		ENGINE = MergeTree
		ORDER BY (kind, request_id, at)`)
}

// Record implements domain.AuditLog
func (c *CH) Record(ctx context.Context, e domain.AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	params := "{}"
	if len(e.Params) > 0 {
		b, err := json.Marshal(e.Params)
		if err != nil {
			return fmt.Errorf("auditlog: encode params: %w", err)
		}
		params = string(b)
	}
	row := []any{
		e.At.UTC(), e.LogType, e.Action, string(e.Kind), e.RequestID,
		e.Actor.ID, e.Actor.Name, e.Target, e.Comment, params,
	}
	if err := c.ch.Insert(ctx, c.table, [][]any{row}); err != nil {
		return fmt.Errorf("auditlog: insert: %w", err)
	}
	return nil
}

// Log writes entries to the process log, used when ClickHouse is disabled
type Log struct {
	log logger.Logger
}

// NewLog returns a Log
func NewLog() *Log { return &Log{log: *logger.Named("audit")} }

// Record implements domain.AuditLog
func (l *Log) Record(_ context.Context, e domain.AuditEntry) error {
	ev := l.log.Info().
		Str("log_type", e.LogType).
		Str("action", e.Action).
		Str("kind", string(e.Kind)).
		Int64("request_id", e.RequestID).
		Str("actor", e.Actor.Name).
		Str("target", e.Target)
	for k, v := range e.Params {
		ev = ev.Str("param_"+k, v)
	}
	ev.Msg(e.Comment)
	return nil
}

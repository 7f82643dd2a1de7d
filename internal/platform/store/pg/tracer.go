package pg

import (
	"context"
	"strings"
	"time"

	"wikidomains/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent is one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer is told about every statement the adapter runs
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer writes statements to root at debug verbosity or above, whatever root's own level is
// failures log at error and slow statements at warn
func Tracer(root logger.Logger) QueryTracer {
	return sqlLog{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type sqlLog struct{ log logger.Logger }

func (s sqlLog) OnQuery(_ context.Context, ev QueryEvent) {
	evt := s.log.Info()
	if ev.Err != nil {
		evt = s.log.Error().Err(ev.Err)
	} else if ev.Slow {
		evt = s.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.Elapsed.Microseconds())/1000).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Msg("pg query")
}

func compact(s string) string { return strings.Join(strings.Fields(s), " ") }

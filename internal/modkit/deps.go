// Package modkit provides module wiring and core deps
package modkit

import (
	"time"

	"wikidomains/internal/modkit/repokit"
	"wikidomains/internal/platform/config"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/metrics"
	"wikidomains/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules
// optional stores are nil when disabled and modules pick a fallback
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      repokit.TxRunner
	CH      store.Clickhouse
	RDS     *redis.Client
	Metrics *metrics.Metrics

	// Now overrides the wall clock, nil means time.Now
	Now func() time.Time
}

// FromStore copies the opened stores into a Deps
func FromStore(cfg config.Conf, st *store.Store, m *metrics.Metrics) Deps {
	d := Deps{Cfg: cfg, Metrics: m}
	if st == nil {
		return d
	}
	d.Log = st.Log
	d.PG = st.PG
	d.CH = st.CH
	d.RDS = st.RDS
	return d
}

// Clock returns the configured time source
func (d Deps) Clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

package store

import (
	"testing"

	"wikidomains/internal/platform/config"
	"wikidomains/internal/platform/testkit"
)

func TestFromConfig(t *testing.T) {
	root := config.New().Prefix(testkit.Env(t, "ST1_", map[string]string{
		"SERVICE_PGSQL_DBURL":     "postgres://u:p@localhost:5432/wikidomains",
		"SERVICE_PGSQL_MAX_CONNS": "8",
		"SERVICE_REDIS_ADDR":      "localhost:6379",
	}))

	c := FromConfig(root, "api", "v1.2.3")
	if !c.PG.Enabled || c.PG.MaxConns != 8 || c.PG.SlowQueryMs != 500 || c.PG.LogSQL {
		t.Fatalf("pg = %+v", c.PG)
	}
	if c.CH.Enabled || c.CH.Role != "api" || c.CH.Version != "v1.2.3" {
		t.Fatalf("ch = %+v", c.CH)
	}
	if !c.RDS.Enabled || c.RDS.Addr != "localhost:6379" || c.AppName != "wikidomains-api" {
		t.Fatalf("redis = %+v", c)
	}
}

func TestFromConfig_RequiresPostgres(t *testing.T) {
	t.Parallel()

	testkit.MustPanic(t, func() {
		_ = FromConfig(config.New().Prefix("ST2_"), "worker", "dev")
	})
}

// Command wikidomains-migrate applies schema migrations and seeds the site and user directory
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"wikidomains/internal/adapters/auditlog"
	"wikidomains/internal/adapters/directory"
	"wikidomains/internal/adapters/sites"
	"wikidomains/internal/core/version"
	"wikidomains/internal/migrations"
	"wikidomains/internal/platform/config"
	"wikidomains/internal/platform/logger"
	"wikidomains/internal/platform/store"
	str "wikidomains/internal/platform/strings"
)

const usage = `usage: wikidomains-migrate <command> [args]

commands:
  up                 apply all pending migrations (and the clickhouse audit table when configured)
  down [n]           roll back n migrations, default 1
  version            print the current schema version
  force <version>    set the version without running migrations
  seed [flags]       register a wiki and a user with rights
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	root := config.New()
	l := logger.Get()
	dbURL := root.Prefix("SERVICE_PGSQL_").MustString("DBURL")
	ctx := context.Background()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "up":
		if err = migrations.Up(dbURL); err == nil {
			err = ensureAudit(ctx, root)
		}
	case "down":
		steps := 1
		if len(args) > 0 {
			if steps, err = strconv.Atoi(args[0]); err != nil || steps <= 0 {
				l.Fatal().Str("arg", args[0]).Msg("down expects a positive step count")
			}
		}
		err = migrations.Down(dbURL, steps)
	case "version":
		var (
			v     uint
			dirty bool
		)
		if v, dirty, err = migrations.Version(dbURL); err == nil {
			fmt.Printf("version %d dirty=%v\n", v, dirty)
		}
	case "force":
		if len(args) != 1 {
			l.Fatal().Msg("force expects a version")
		}
		v, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			l.Fatal().Err(convErr).Msg("force expects a numeric version")
		}
		err = migrations.Force(dbURL, v)
	case "seed":
		err = seed(ctx, root, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		l.Fatal().Err(err).Str("command", cmd).Msg("migrate failed")
	}
	l.Info().Str("command", cmd).Msg("migrate done")
}

// ensureAudit creates the clickhouse audit table when clickhouse is configured
func ensureAudit(ctx context.Context, root config.Conf) error {
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	if !ch.Has("DBURL") {
		return nil
	}
	cfg := store.FromConfig(root, "migrate", version.Info().Version)
	cfg.PG.Enabled = false
	cfg.RDS.Enabled = false

	st, err := store.Open(ctx, cfg, store.WithLogger(*logger.Get()))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(ctx) }()

	a, err := auditlog.NewClickhouse(st.CH, root.Prefix("REQUESTS_").MayString("AUDIT_TABLE", auditlog.DefaultTable))
	if err != nil {
		return err
	}
	return a.EnsureSchema(ctx)
}

func seed(ctx context.Context, root config.Conf, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	var (
		wiki   = fs.String("wiki", "", "wiki database name, e.g. examplewiki")
		server = fs.String("server", "", "current server name of the wiki")
		user   = fs.String("user", "", "user name to create or reuse")
		rights = fs.String("rights", "", "comma separated rights, right@wiki scopes a right to one wiki")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := store.FromConfig(root, "migrate", version.Info().Version)
	cfg.CH.Enabled = false
	cfg.RDS.Enabled = false
	st, err := store.Open(ctx, cfg, store.WithLogger(*logger.Get()))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(ctx) }()

	return st.PG.Tx(ctx, func(q store.RowQuerier) error {
		if *wiki != "" {
			if err := sites.New(q).Register(ctx, *wiki, *server); err != nil {
				return err
			}
		}
		if *user == "" {
			return nil
		}
		dir := directory.New(q)
		u, err := dir.EnsureUser(ctx, *user)
		if err != nil {
			return err
		}
		for _, r := range str.SplitTrim(*rights, ",") {
			right, site, _ := strings.Cut(r, "@")
			if err := dir.Grant(ctx, u.ID, site, right); err != nil {
				return err
			}
		}
		logger.Get().Info().Int64("user_id", u.ID).Str("user", u.Name).Msg("user seeded")
		return nil
	})
}

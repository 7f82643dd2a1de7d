// Package sites is the Postgres registry of hosted wikis and their server names
package sites

import (
	"context"

	"wikidomains/internal/modkit/repokit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/store"
)

// Registry implements domain.SiteConfigurator over the sites table
type Registry struct {
	db repokit.Queryer
}

// New returns a Registry on db
func New(db repokit.Queryer) *Registry { return &Registry{db: db} }

// Exists reports whether dbname is registered
func (r *Registry) Exists(ctx context.Context, dbname string) (bool, error) {
	ok, err := store.Exists(ctx, r.db, `SELECT 1 FROM sites WHERE dbname = $1`, dbname)
	if err != nil {
		return false, perr.FromPostgres(err, "site lookup failed")
	}
	return ok, nil
}

// ServerName returns the current server name of dbname
func (r *Registry) ServerName(ctx context.Context, dbname string) (string, error) {
	s, err := store.Scalar[string](ctx, r.db, `SELECT server_name FROM sites WHERE dbname = $1`, dbname)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return "", perr.NotFoundf("site %s not found", dbname)
	}
	if err != nil {
		return "", perr.FromPostgres(err, "site lookup failed")
	}
	return s, nil
}

// SetServerName points dbname at serverName
func (r *Registry) SetServerName(ctx context.Context, dbname, serverName string) error {
	err := store.ExecOne(ctx, r.db, `
		UPDATE sites
		SET server_name = $2, updated_at = NOW()
		WHERE dbname = $1`, dbname, serverName)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("site %s not found", dbname)
	}
	if err != nil {
		return perr.FromPostgres(err, "update server name failed")
	}
	return nil
}

// Register adds dbname, used by seeding and tests
func (r *Registry) Register(ctx context.Context, dbname, serverName string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sites (dbname, server_name) VALUES ($1, $2)
		ON CONFLICT (dbname) DO NOTHING`, dbname, serverName)
	if err != nil {
		return perr.FromPostgres(err, "register site failed")
	}
	return nil
}

// Package directory resolves users and their rights from Postgres
package directory

import (
	"context"

	"wikidomains/internal/modkit/repokit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/store"
	"wikidomains/internal/services/requests/domain"
)

// RightBureaucrat is the per-site administration right
const RightBureaucrat = "bureaucrat"

// Directory implements domain.UserDirectory
// a right stored with an empty site applies farm wide
type Directory struct {
	db repokit.Queryer
}

// New returns a Directory on db
func New(db repokit.Queryer) *Directory { return &Directory{db: db} }

func scanActor(r store.Row) (domain.Actor, error) {
	var a domain.Actor
	err := r.Scan(&a.ID, &a.Name)
	a.Kind = domain.ActorUser
	return a, err
}

func (d *Directory) one(ctx context.Context, sql string, arg any) (domain.Actor, bool, error) {
	a, err := store.One(ctx, d.db, scanActor, sql, arg)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Actor{}, false, nil
	}
	if err != nil {
		return domain.Actor{}, false, perr.FromPostgres(err, "user lookup failed")
	}
	return a, true, nil
}

// ByID looks a user up by id
func (d *Directory) ByID(ctx context.Context, id int64) (domain.Actor, bool, error) {
	if id <= 0 {
		return domain.Actor{}, false, nil
	}
	return d.one(ctx, `SELECT id, name FROM users WHERE id = $1`, id)
}

// ByName looks a user up by exact name
func (d *Directory) ByName(ctx context.Context, name string) (domain.Actor, bool, error) {
	if name == "" {
		return domain.Actor{}, false, nil
	}
	return d.one(ctx, `SELECT id, name FROM users WHERE name = $1`, name)
}

// HasRight reports a farm wide right
func (d *Directory) HasRight(ctx context.Context, userID int64, right string) (bool, error) {
	ok, err := store.Exists(ctx, d.db, `
		SELECT 1 FROM user_rights
		WHERE user_id = $1 AND "right" = $2 AND site = ''`, userID, right)
	if err != nil {
		return false, perr.FromPostgres(err, "rights lookup failed")
	}
	return ok, nil
}

// IsBureaucrat reports whether the user is a bureaucrat on site or farm wide
func (d *Directory) IsBureaucrat(ctx context.Context, userID int64, site string) (bool, error) {
	ok, err := store.Exists(ctx, d.db, `
		SELECT 1 FROM user_rights
		WHERE user_id = $1 AND "right" = $2 AND site IN ($3, '')`, userID, RightBureaucrat, site)
	if err != nil {
		return false, perr.FromPostgres(err, "rights lookup failed")
	}
	return ok, nil
}

// Blocked reports the user's block flag, unknown users are not blocked
func (d *Directory) Blocked(ctx context.Context, userID int64) (bool, error) {
	b, err := store.Scalar[bool](ctx, d.db, `SELECT blocked FROM users WHERE id = $1`, userID)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, perr.FromPostgres(err, "block lookup failed")
	}
	return b, nil
}

// Grant gives right to userID on site, an empty site grants farm wide
func (d *Directory) Grant(ctx context.Context, userID int64, site, right string) error {
	_, err := d.db.Exec(ctx, `
		INSERT INTO user_rights (user_id, site, "right") VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, userID, site, right)
	if err != nil {
		return perr.FromPostgres(err, "grant failed")
	}
	return nil
}

// EnsureUser creates name if missing and returns it
func (d *Directory) EnsureUser(ctx context.Context, name string) (domain.Actor, error) {
	a, err := store.One(ctx, d.db, scanActor, `
		INSERT INTO users (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`, name)
	if err != nil {
		return domain.Actor{}, perr.FromPostgres(err, "ensure user failed")
	}
	return a, nil
}

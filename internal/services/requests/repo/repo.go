// Package repo provides the Postgres persistence of requests and their comments
package repo

import (
	"context"
	"fmt"
	"strings"

	"wikidomains/internal/modkit/repokit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/store"
	"wikidomains/internal/services/requests/domain"
)

// Repo is the request persistence surface used by the service layer
type Repo interface {
	Create(ctx context.Context, in domain.NewRequest) (domain.Request, error)
	Load(ctx context.Context, id int64) (domain.Request, error)
	LoadForUpdate(ctx context.Context, id int64) (domain.Request, error)
	HasPending(ctx context.Context, kind domain.Kind, target string) (bool, error)
	Update(ctx context.Context, id int64, c domain.Changes) (domain.Request, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Request, error)
	IDsByStatus(ctx context.Context, kind domain.Kind, status domain.Status, limit int) ([]int64, error)

	AppendComment(ctx context.Context, requestID int64, author domain.Actor, text string) (domain.Comment, error)
	ListComments(ctx context.Context, requestID int64) ([]domain.Comment, error)
	CommentAuthors(ctx context.Context, requestID int64) ([]domain.Actor, error)
}

type (
	// PG is a Postgres implementation of the request repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const requestCols = `id, kind, custom_domain, target, reason, status,
	requester_id, requester_name, locked, private, created_at, updated_at`

const commentCols = `id, request_id, actor_id, actor_name, actor_kind, comment_text, created_at`

// DefaultListLimit caps a queue page when the caller asks for none
const DefaultListLimit = 50

func scanRequest(r store.Row) (domain.Request, error) {
	var (
		x            domain.Request
		kind, status string
	)
	err := r.Scan(
		&x.ID, &kind, &x.CustomDomain, &x.Target, &x.Reason, &status,
		&x.Requester.ID, &x.Requester.Name, &x.Locked, &x.Private, &x.CreatedAt, &x.UpdatedAt,
	)
	x.Kind = domain.Kind(kind)
	x.Status = domain.Status(status)
	x.Requester.Kind = domain.ActorUser
	return x, err
}

func scanComment(r store.Row) (domain.Comment, error) {
	var (
		c    domain.Comment
		kind string
	)
	err := r.Scan(&c.ID, &c.RequestID, &c.Author.ID, &c.Author.Name, &kind, &c.Text, &c.CreatedAt)
	c.Author.Kind = domain.ActorKind(kind)
	return c, err
}

// Create inserts a pending request
// a second pending request for the same kind and target trips domain_requests_one_pending
func (r *queries) Create(ctx context.Context, in domain.NewRequest) (domain.Request, error) {
	sql := `
		INSERT INTO domain_requests (
			kind, custom_domain, target, reason, status,
			requester_id, requester_name, locked, private, created_at, updated_at
		) VALUES ($1, $2, $3, $4, 'pending', $5, $6, FALSE, $7, NOW(), NOW())
		RETURNING ` + requestCols
	out, err := store.One(ctx, r.q, scanRequest, sql,
		string(in.Kind), in.CustomDomain, in.Target, in.Reason,
		in.Requester.ID, in.Requester.Name, in.Private,
	)
	if err != nil {
		if perr.IsDuplicateKey(err) {
			return domain.Request{}, perr.WithField(
				perr.DuplicateKeyf("a pending request already exists for %s", in.Target), "target")
		}
		return domain.Request{}, perr.FromPostgres(err, "insert request")
	}
	return out, nil
}

// Load fetches a request by id
func (r *queries) Load(ctx context.Context, id int64) (domain.Request, error) {
	sql := `SELECT ` + requestCols + ` FROM domain_requests WHERE id = $1`
	return r.one(ctx, id, sql)
}

// LoadForUpdate fetches a request and holds its row lock until the tx ends
func (r *queries) LoadForUpdate(ctx context.Context, id int64) (domain.Request, error) {
	sql := `SELECT ` + requestCols + ` FROM domain_requests WHERE id = $1 FOR UPDATE`
	return r.one(ctx, id, sql)
}

func (r *queries) one(ctx context.Context, id int64, sql string) (domain.Request, error) {
	out, err := store.One(ctx, r.q, scanRequest, sql, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Request{}, perr.NotFoundf("request %d not found", id)
	}
	if err != nil {
		return domain.Request{}, perr.FromPostgresf(err, "load request %d", id)
	}
	return out, nil
}

// HasPending reports whether an unresolved request exists for target
func (r *queries) HasPending(ctx context.Context, kind domain.Kind, target string) (bool, error) {
	const sql = `
		SELECT 1 FROM domain_requests
		WHERE kind = $1 AND target = $2 AND status = 'pending'`
	ok, err := store.Exists(ctx, r.q, sql, string(kind), target)
	if err != nil {
		return false, perr.FromPostgres(err, "check pending request")
	}
	return ok, nil
}

// Update applies the set fields of c in one statement and returns the new row
func (r *queries) Update(ctx context.Context, id int64, c domain.Changes) (domain.Request, error) {
	if c.Empty() {
		return r.Load(ctx, id)
	}
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if c.CustomDomain != nil {
		add("custom_domain", *c.CustomDomain)
	}
	if c.Target != nil {
		add("target", *c.Target)
	}
	if c.Reason != nil {
		add("reason", *c.Reason)
	}
	if c.Status != nil {
		add("status", string(*c.Status))
	}
	if c.Locked != nil {
		add("locked", *c.Locked)
	}
	if c.Private != nil {
		add("private", *c.Private)
	}
	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE domain_requests SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), requestCols)

	out, err := store.One(ctx, r.q, scanRequest, sql, args...)
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return domain.Request{}, perr.NotFoundf("request %d not found", id)
	case perr.IsDuplicateKey(err):
		return domain.Request{}, perr.WithField(perr.DuplicateKeyf("a pending request already exists for this target"), "target")
	case err != nil:
		return domain.Request{}, perr.FromPostgresf(err, "update request %d", id)
	}
	return out, nil
}

// List returns one page of the queue, newest first
func (r *queries) List(ctx context.Context, f domain.Filter) ([]domain.Request, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	sql := `
		SELECT ` + requestCols + `
		FROM domain_requests
		WHERE ($1::text = '' OR kind = $1)
		  AND ($2::text = '' OR status = $2)
		  AND ($3::text = '' OR target = $3)
		  AND ($4::bigint = 0 OR requester_id = $4)
		  AND (NOT private OR $5::boolean OR ($6::bigint <> 0 AND requester_id = $6))
		ORDER BY created_at DESC, id DESC
		LIMIT $7 OFFSET $8`
	out, err := store.Many(ctx, r.q, scanRequest, sql,
		string(f.Kind), string(f.Status), f.Target, f.RequesterID,
		f.IncludePrivate, f.ViewerID, limit, max(0, f.Offset),
	)
	if err != nil {
		return nil, perr.FromPostgres(err, "list requests")
	}
	return out, nil
}

// IDsByStatus returns the oldest request ids in a state
func (r *queries) IDsByStatus(ctx context.Context, kind domain.Kind, status domain.Status, limit int) ([]int64, error) {
	const sql = `
		SELECT id FROM domain_requests
		WHERE kind = $1 AND status = $2
		ORDER BY updated_at ASC, id ASC
		LIMIT $3`
	ids, err := store.Many(ctx, r.q, func(row store.Row) (int64, error) {
		var id int64
		return id, row.Scan(&id)
	}, sql, string(kind), string(status), max(1, limit))
	if err != nil {
		return nil, perr.FromPostgres(err, "list request ids")
	}
	return ids, nil
}

// AppendComment inserts an immutable comment stamped with the insert time
func (r *queries) AppendComment(ctx context.Context, requestID int64, author domain.Actor, text string) (domain.Comment, error) {
	sql := `
		INSERT INTO domain_request_comments (request_id, actor_id, actor_name, actor_kind, comment_text, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + commentCols
	out, err := store.One(ctx, r.q, scanComment, sql,
		requestID, author.ID, author.Name, string(author.Kind), text)
	if err != nil {
		if perr.IsForeignKeyViolation(err) {
			return domain.Comment{}, perr.NotFoundf("request %d not found", requestID)
		}
		return domain.Comment{}, perr.FromPostgres(err, "insert comment")
	}
	return out, nil
}

// ListComments returns the trail of a request, most recent first
func (r *queries) ListComments(ctx context.Context, requestID int64) ([]domain.Comment, error) {
	sql := `
		SELECT ` + commentCols + `
		FROM domain_request_comments
		WHERE request_id = $1
		ORDER BY created_at DESC, id DESC`
	out, err := store.Many(ctx, r.q, scanComment, sql, requestID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list comments")
	}
	return out, nil
}

// CommentAuthors returns the distinct real users who commented on a request
func (r *queries) CommentAuthors(ctx context.Context, requestID int64) ([]domain.Actor, error) {
	const sql = `
		SELECT DISTINCT ON (actor_id) actor_id, actor_name
		FROM domain_request_comments
		WHERE request_id = $1 AND actor_kind = 'user' AND actor_id <> 0
		ORDER BY actor_id, created_at DESC`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.Actor, error) {
		a := domain.Actor{Kind: domain.ActorUser}
		return a, row.Scan(&a.ID, &a.Name)
	}, sql, requestID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list comment authors")
	}
	return out, nil
}

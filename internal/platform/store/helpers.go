package store

import (
	"context"
	"errors"
	"fmt"

	perr "wikidomains/internal/platform/errors"

	"github.com/jackc/pgx/v5"
)

// ExecOne runs a write that must touch exactly one row
// touching none is perr.ErrNotFound, more than one is a plain error
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n != 1 {
		if n == 0 {
			return perr.ErrNotFound
		}
		return fmt.Errorf("expected exactly one row affected, got %d", n)
	}
	return nil
}

// Scalar scans the first column of the single row sql returns
// no row is perr.ErrNotFound
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	err := q.QueryRow(ctx, sql, args...).Scan(&v)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return v, perr.ErrNotFound
	case err != nil:
		return v, err
	}
	return v, nil
}

// Exists reports whether sql returns any row. sql is a plain SELECT, wrapped here in EXISTS
func Exists(ctx context.Context, q RowQuerier, sql string, args ...any) (bool, error) {
	return Scalar[bool](ctx, q, "SELECT EXISTS ("+sql+")", args...)
}

// each scans rows until fn returns false or the set ends, then closes it
func each[T any](rows Rows, scan func(Row) (T, error), fn func(T) bool) error {
	defer rows.Close()
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return err
		}
		if !fn(item) {
			break
		}
	}
	return rows.Err()
}

// One scans the only row sql returns; none is perr.ErrNotFound and two or more is an error
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var (
		out  T
		seen int
	)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return out, err
	}
	err = each(rows, scan, func(item T) bool {
		seen++
		if seen == 1 {
			out = item
		}
		return seen < 2
	})
	var zero T
	switch {
	case err != nil:
		return zero, err
	case seen == 0:
		return zero, perr.ErrNotFound
	case seen > 1:
		return zero, fmt.Errorf("expected 1 row, got more")
	}
	return out, nil
}

// Many scans every row sql returns; no rows is a nil slice
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := each(rows, scan, func(item T) bool { out = append(out, item); return true }); err != nil {
		return nil, err
	}
	return out, nil
}

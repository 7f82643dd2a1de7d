package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint, Message: "pg says no"}
}

func TestFromPostgres_Codes(t *testing.T) {
	t.Parallel()

	cases := map[string]ErrorCode{
		pgUniqueViolation:     ErrorCodeDuplicateKey,
		pgForeignKeyViolation: ErrorCodeInvalidArgument,
		pgCheckViolation:      ErrorCodeValidation,
		pgCannotConnectNow:    ErrorCodeUnavailable,
		pgLockNotAvailable:    ErrorCodeUnavailable,
		pgDeadlock:            ErrorCodeDB,
		"XX000":               ErrorCodeDB,
	}
	for state, want := range cases {
		got := FromPostgres(fmt.Errorf("wrapped: %w", pgErr(state, "")), "update request")
		if CodeOf(got) != want {
			t.Fatalf("%s mapped to %v, want %v", state, CodeOf(got), want)
		}
	}
}

func TestFromPostgres(t *testing.T) {
	t.Parallel()

	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil should stay nil")
	}

	dup := FromPostgres(pgErr(pgUniqueViolation, "domain_requests_one_pending"), "insert request")
	if !IsCode(dup, ErrorCodeDuplicateKey) || !IsDuplicateKey(dup) || IsForeignKeyViolation(dup) {
		t.Fatalf("unique violation mapped to %v", CodeOf(dup))
	}
	if ConstraintName(dup) != "domain_requests_one_pending" || ConstraintName(stderrs.New("x")) != "" {
		t.Fatalf("constraint = %q", ConstraintName(dup))
	}

	ours := NotFoundf("request 1 not found")
	if FromPostgres(ours, "load") != ours {
		t.Fatalf("project errors should pass through")
	}

	if c := FromPostgres(context.Canceled, "load"); !IsCode(c, ErrorCodeUnavailable) {
		t.Fatalf("cancel mapped to %v", CodeOf(c))
	}

	other := FromPostgresf(stderrs.New("conn reset"), "load %d", 3)
	if !IsCode(other, ErrorCodeDB) || other.Error() != "load 3: conn reset" {
		t.Fatalf("other = %v (%v)", other, CodeOf(other))
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization", pgErr(pgSerialization, ""), true},
		{"deadlock", Wrap(pgErr(pgDeadlock, ""), ErrorCodeDB, "tx"), true},
		{"lock timeout", pgErr(pgLockNotAvailable, ""), true},
		{"unique", pgErr(pgUniqueViolation, ""), false},
		{"commit text", stderrs.New("commit unexpectedly resulted in rollback"), true},
		{"canceled", context.Canceled, false},
		{"plain", stderrs.New("boom"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Fatalf("%s: IsRetryable = %v, want %v", c.name, got, c.want)
		}
	}
}

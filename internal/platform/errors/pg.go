package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATEs with a meaning beyond "database error"
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgStringTooLong       = "22001"
	pgBadTextValue        = "22P02"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgLockNotAvailable    = "55P03"
	pgReadOnly            = "25006"
	pgCannotConnectNow    = "57P03"
)

// pgCodes maps SQLSTATE to ErrorCode; anything missing is ErrorCodeDB
var pgCodes = map[string]ErrorCode{
	pgUniqueViolation:     ErrorCodeDuplicateKey,
	pgForeignKeyViolation: ErrorCodeInvalidArgument,
	pgStringTooLong:       ErrorCodeInvalidArgument,
	pgBadTextValue:        ErrorCodeInvalidArgument,
	pgNotNullViolation:    ErrorCodeValidation,
	pgCheckViolation:      ErrorCodeValidation,
	pgReadOnly:            ErrorCodeUnavailable,
	pgCannotConnectNow:    ErrorCodeUnavailable,
	// lock_timeout on a request row: someone else holds it, try again shortly
	pgLockNotAvailable: ErrorCodeUnavailable,
}

// retryStates are transaction outcomes a fresh attempt can fix
var retryStates = map[string]bool{pgSerialization: true, pgDeadlock: true, pgLockNotAvailable: true}

// retryText covers failures pgx reports without a PgError, such as a commit turned rollback
var retryText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	ok := stderrs.As(err, &pe)
	return pe, ok
}

func sqlState(err error) string {
	if pe, ok := pgError(err); ok {
		return pe.Code
	}
	return ""
}

// IsDuplicateKey reports a unique constraint violation anywhere in err's chain
func IsDuplicateKey(err error) bool { return sqlState(err) == pgUniqueViolation }

// IsForeignKeyViolation reports a foreign key violation anywhere in err's chain
func IsForeignKeyViolation(err error) bool { return sqlState(err) == pgForeignKeyViolation }

// ConstraintName is the violated constraint, "" when err has none
func ConstraintName(err error) string {
	if pe, ok := pgError(err); ok {
		return pe.ConstraintName
	}
	return ""
}

// FromPostgres classifies a database failure under msg.
// nil stays nil and project errors pass through; cancellation is ErrorCodeUnavailable
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ours := As(err); ours {
		return err
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	code := ErrorCodeDB
	if c, ok := pgCodes[sqlState(err)]; ok {
		code = c
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether rerunning the transaction may succeed
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if state := sqlState(err); state != "" {
		return retryStates[state]
	}
	s := strings.ToLower(Root(err).Error())
	for _, t := range retryText {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

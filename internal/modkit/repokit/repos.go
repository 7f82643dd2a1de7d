// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"context"
	"time"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/store"
)

// Queryer is the minimal read and write surface for SQL repos
type Queryer = store.RowQuerier

// TxRunner can execute a function inside a transaction
type TxRunner = store.TxRunner

type (
	// Rows are the result set of a query
	Rows = store.Rows

	// Row is a single row result from a query
	Row = store.Row

	// CommandTag is the result of a command that modifies data
	CommandTag = store.CommandTag
)

// retry backoff, swapped in tests
var backoff = func(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * 25 * time.Millisecond
}

// WithTxRetry runs fn in a transaction and reruns the whole transaction when it fails
// with a serialization, deadlock or lock timeout error, up to attempts times
// fn must not have side effects outside the transaction
func WithTxRetry(ctx context.Context, tx TxRunner, attempts int, fn func(q Queryer) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = tx.Tx(ctx, fn)
		if err == nil || !perr.IsRetryable(err) || i == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff(i)):
		}
	}
	return err
}

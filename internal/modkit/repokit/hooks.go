package repokit

import (
	"context"
	"fmt"
	"time"
)

// BeginHook runs at the start of a transaction with the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks wraps a TxRunner and runs hooks before fn inside the same tx
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	if len(hooks) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: hooks}
}

// hookedTx only intercepts Tx; plain statements go straight to the embedded runner
type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hook := range h.hooks {
			if err := hook(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// LockTimeout bounds how long statements in the tx wait on row locks
// a timed out wait fails with 55P03 which WithTxRetry treats as retryable
func LockTimeout(d time.Duration) BeginHook {
	return setLocal("lock_timeout", d)
}

// StatementTimeout bounds every statement in the tx
func StatementTimeout(d time.Duration) BeginHook {
	return setLocal("statement_timeout", d)
}

func setLocal(name string, d time.Duration) BeginHook {
	// SET does not take bind parameters
	sql := fmt.Sprintf("SET LOCAL %s = '%dms'", name, d.Milliseconds())
	return func(ctx context.Context, q Queryer) error {
		if d <= 0 {
			return nil
		}
		_, err := q.Exec(ctx, sql)
		return err
	}
}

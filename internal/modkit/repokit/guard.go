package repokit

import (
	"context"
	"time"

	perr "wikidomains/internal/platform/errors"
)

type guarder interface {
	Guard(context.Context) error
}

// Ready runs st.Guard under timeout and reports failures as unavailable
// a ctx that already has a deadline keeps it
func Ready(ctx context.Context, st guarder, timeout time.Duration) error {
	if st == nil {
		return perr.Unavailablef("no store to guard")
	}
	if _, ok := ctx.Deadline(); !ok {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "dependency guard failed")
	}
	return nil
}

// MustReady panics when Ready fails, binaries call it before serving
func MustReady(ctx context.Context, st guarder, timeout time.Duration) {
	if err := Ready(ctx, st, timeout); err != nil {
		panic(err)
	}
}

package middleware

import (
	stdhttp "net/http"
	"runtime/debug"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"
	pnet "wikidomains/internal/platform/net"
)

// RecoverJSON converts panics into a JSON 500 and logs the stack with the request id
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			logger.C(logger.WithRequest(r.Context(), reqID, "")).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			env := pnet.ErrorEnvelope(perr.PanicErrf("panic recovered"), reqID)
			pnet.WriteJSON(w, env.StatusCode, env)
		}()
		next.ServeHTTP(w, r)
	})
}

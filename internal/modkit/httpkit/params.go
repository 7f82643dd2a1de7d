package httpkit

import (
	"net/http"
	"strconv"
	"strings"

	perrs "wikidomains/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

// ParamInt64 reads a positive integer path parameter
func ParamInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, perrs.WithField(perrs.Validationf("%s must be a positive integer", name), name)
	}
	return v, nil
}

// Param reads a raw path parameter
func Param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// QueryInt reads an optional integer query parameter, def when absent
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, perrs.WithField(perrs.Validationf("%s must be a non-negative integer", name), name)
	}
	return v, nil
}

package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "wikidomains/internal/platform/errors"
	pnet "wikidomains/internal/platform/net"
	"wikidomains/internal/platform/net/middleware"
)

func TestRecoverJSON(t *testing.T) {
	t.Parallel()

	h := middleware.RequestID()(middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError || rr.Header().Get("X-Request-ID") != "rid-1" {
		t.Fatalf("code=%d headers=%v", rr.Code, rr.Header())
	}
	var body pnet.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != perr.ErrorCodePanic || body.RequestID != "rid-1" {
		t.Fatalf("body = %+v", body)
	}
}

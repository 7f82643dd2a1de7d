// Package httpkit is what service modules import for routing and responses
// so none of them reach into internal/platform/net/http
package httpkit

import (
	"net/http"

	phttp "wikidomains/internal/platform/net/http"
)

type (
	Envelope = phttp.Envelope
	Page     = phttp.Page
	Response = phttp.Response
	Handler  = phttp.Handler
	Router   = phttp.Router
)

// response constructors, see phttp for the envelope each one writes
var (
	OK        = phttp.OK
	Created   = phttp.Created
	Accepted  = phttp.Accepted
	NoContent = phttp.NoContent
	Error     = phttp.Error
	List      = phttp.List
	Handle    = phttp.Handle
)

// JSON decodes and validates a T from the body, then hands it to fn
// fn may return a Response to pick the status, anything else is sent as 200
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler { return phttp.JSONHandler(fn) }

// Call is JSON for handlers that read nothing from the body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.NoBodyHandler(fn) }

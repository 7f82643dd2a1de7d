package middleware

import (
	pstrings "wikidomains/internal/platform/strings"

	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
)

// CORSOptions is the part of go-chi/cors the api exposes
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS lets the wiki frontends call the api from the browser
// no origins means no cross origin access at all
func CORS(o CORSOptions) Middleware {
	return cors.Handler(cors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   pstrings.Or(o.AllowedMethods, corsMethods),
		AllowedHeaders:   pstrings.Or(o.AllowedHeaders, corsHeaders),
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}

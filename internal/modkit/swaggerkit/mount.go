// Package swaggerkit serves the embedded OpenAPI document and a swagger UI for it under /api/docs
package swaggerkit

import (
	"net/http"

	phttp "wikidomains/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const docsRoot = "/api/docs"

// Mount is a no-op unless enabled; titleSuffix is appended to the document title, e.g. "(staging)"
func Mount(r phttp.Router, enabled bool, titleSuffix string) {
	if !enabled {
		return
	}
	r.Get(docsRoot, http.RedirectHandler(docsRoot+"/", http.StatusPermanentRedirect).ServeHTTP)
	r.Get(docsRoot+"/doc.json", serveDocJSON(titleSuffix))
	r.Handle(docsRoot+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName("wikidomains"),
		httpSwagger.URL(docsRoot+"/doc.json"),
	))
}

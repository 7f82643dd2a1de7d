package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"

	"wikidomains/internal/modkit/httpkit"
)

//go:embed openapi.json
var openapiJSON string

var docReader = func() string { return openapiJSON }

type object = map[string]any

// errorResponse is pnet.Envelope as written for a failed request
var errorResponse = object{
	"type":        "object",
	"description": "Error envelope",
	"required":    []any{"status_code", "status"},
	"properties": object{
		"status_code": object{"type": "integer", "format": "int32"},
		"status":      object{"type": "string"},
		"code":        object{"type": "integer", "format": "int32"},
		"error":       object{"type": "string"},
		"field":       object{"type": "string"},
		"request_id":  object{"type": "string"},
	},
}

// fallback responses for operations that do not document the status themselves;
// writeOnly ones apply to POST and PATCH
var fallbacks = []struct {
	code      string
	desc      string
	writeOnly bool
	example   object
}{
	{"400", "Bad Request", true, object{
		"status_code": 400, "status": "Bad Request", "code": 8,
		"field": "domain", "error": "domain must be a valid URL",
	}},
	{"401", "Unauthorized", true, object{
		"status_code": 401, "status": "Unauthorized", "code": 5,
		"error": "authentication required",
	}},
	{"500", "Internal Server Error", false, object{
		"status_code": 500, "status": "Internal Server Error", "code": 1,
		"error": "panic recovered",
	}},
}

// Spec is the embedded document as served: OAS 3.0.3, pinned to the versioned
// api prefix, with the error envelope and fallback responses filled in
func Spec(titleSuffix string) (object, error) {
	var doc object
	if err := json.Unmarshal([]byte(docReader()), &doc); err != nil {
		return nil, err
	}

	// the bundled ui renders neither swagger 2 nor 3.1
	delete(doc, "swagger")
	if v, _ := doc["openapi"].(string); !strings.HasPrefix(v, "3.0") {
		doc["openapi"] = "3.0.3"
	}
	if _, ok := doc["servers"]; !ok {
		doc["servers"] = []any{object{"url": httpkit.APIPrefix(httpkit.APIVersion)}}
	}
	if info, ok := doc["info"].(object); ok && titleSuffix != "" {
		if title, ok := info["title"].(string); ok {
			info["title"] = title + " " + titleSuffix
		}
	}

	schemas := child(child(doc, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = errorResponse
	}

	paths, _ := doc["paths"].(object)
	for _, item := range paths {
		ops, ok := item.(object)
		if !ok {
			continue
		}
		for method, raw := range ops {
			op, ok := raw.(object)
			if !ok || method == "parameters" {
				continue
			}
			write := method == "post" || method == "patch"
			responses := child(op, "responses")
			for _, f := range fallbacks {
				if _, set := responses[f.code]; set || f.writeOnly && !write {
					continue
				}
				responses[f.code] = object{
					"description": f.desc,
					"content": object{"application/json": object{
						"schema":  object{"$ref": "#/components/schemas/ErrorResponse"},
						"example": f.example,
					}},
				}
			}
		}
	}
	return doc, nil
}

// child returns m[key] as an object, creating it when absent
func child(m object, key string) object {
	c, ok := m[key].(object)
	if !ok {
		c = object{}
		m[key] = c
	}
	return c
}

func serveDocJSON(titleSuffix string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		doc, err := Spec(titleSuffix)
		if err != nil {
			http.Error(w, "openapi document does not parse", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(doc)
	}
}

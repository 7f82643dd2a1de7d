package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "wikidomains/internal/platform/net/http"
	"wikidomains/internal/platform/testkit"
)

func TestSpec_EmbeddedDocument(t *testing.T) {
	spec, err := Spec("(test)")
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec["openapi"] != "3.0.3" {
		t.Fatalf("openapi = %v", spec["openapi"])
	}
	info := spec["info"].(map[string]any)
	if info["title"] != "wikidomains API (test)" {
		t.Fatalf("title = %v", info["title"])
	}
	paths := spec["paths"].(map[string]any)
	submit := paths["/{kind}/requests"].(map[string]any)["post"].(map[string]any)
	responses := submit["responses"].(map[string]any)
	for _, code := range []string{"201", "400", "500"} {
		if _, ok := responses[code]; !ok {
			t.Fatalf("submit is missing %s response", code)
		}
	}
	schemas := spec["components"].(map[string]any)["schemas"].(map[string]any)
	if _, ok := schemas["ErrorResponse"]; !ok {
		t.Fatalf("ErrorResponse not injected")
	}
}

func TestSpec_SwaggerTwoIsUpgraded(t *testing.T) {
	testkit.Swap(t, &docReader, func() string { return `{"swagger":"2.0","info":{"title":"x"},"paths":{"/a":{"get":{}}}}` })

	spec, err := Spec("")
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if _, ok := spec["swagger"]; ok || spec["openapi"] != "3.0.3" {
		t.Fatalf("not upgraded: %v", spec)
	}
	servers := spec["servers"].([]any)
	if servers[0].(map[string]any)["url"] != "/api/v1" {
		t.Fatalf("servers = %v", servers)
	}
	get := spec["paths"].(map[string]any)["/a"].(map[string]any)["get"].(map[string]any)
	if _, ok := get["responses"].(map[string]any)["500"]; !ok {
		t.Fatalf("default 500 not added")
	}
}

func TestServeDocJSON(t *testing.T) {
	t.Run("broken document", func(t *testing.T) {
		testkit.Swap(t, &docReader, func() string { return "{not json" })
		rec := httptest.NewRecorder()
		serveDocJSON("")(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("bad doc = %d", rec.Code)
		}
	})

	rec := httptest.NewRecorder()
	serveDocJSON("")(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	var out map[string]any
	if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &out) != nil {
		t.Fatalf("doc = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSpec_FallbacksOnlyFillGaps(t *testing.T) {
	testkit.Swap(t, &docReader, func() string {
		return `{"openapi":"3.1.0","servers":[{"url":"/x"}],"paths":{"/r":{
			"parameters":[],
			"get":{"responses":{"200":{}}},
			"patch":{"responses":{"400":{"description":"mine"}}}}}}`
	})

	spec, err := Spec("")
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec["openapi"] != "3.0.3" || spec["servers"].([]any)[0].(map[string]any)["url"] != "/x" {
		t.Fatalf("header = %v %v", spec["openapi"], spec["servers"])
	}
	ops := spec["paths"].(map[string]any)["/r"].(map[string]any)
	get := ops["get"].(map[string]any)["responses"].(map[string]any)
	if _, ok := get["401"]; ok {
		t.Fatalf("401 added to a read")
	}
	patch := ops["patch"].(map[string]any)["responses"].(map[string]any)
	if patch["400"].(map[string]any)["description"] != "mine" {
		t.Fatalf("documented 400 overwritten")
	}
	for _, code := range []string{"401", "500"} {
		if _, ok := patch[code]; !ok {
			t.Fatalf("patch missing %s", code)
		}
	}
}

func TestMount(t *testing.T) {
	t.Parallel()

	off := &fakeRouter{}
	Mount(off, false, "")
	if len(off.paths) != 0 {
		t.Fatalf("disabled mount registered %v", off.paths)
	}

	on := &fakeRouter{}
	Mount(on, true, "(staging)")
	want := []string{"GET /api/docs", "GET /api/docs/doc.json", "HANDLE /api/docs/*"}
	if len(on.paths) != len(want) {
		t.Fatalf("paths = %v", on.paths)
	}
	for i := range want {
		if on.paths[i] != want[i] {
			t.Fatalf("paths = %v", on.paths)
		}
	}
}

type fakeRouter struct {
	phttp.Router
	paths []string
}

func (f *fakeRouter) Get(p string, _ phttp.Handler)   { f.paths = append(f.paths, "GET "+p) }
func (f *fakeRouter) Handle(p string, _ http.Handler) { f.paths = append(f.paths, "HANDLE "+p) }

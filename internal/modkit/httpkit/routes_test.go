package httpkit

import (
	"net/http"
	"reflect"
	"testing"
)

type sugarIn struct {
	Name string `json:"name" validate:"required"`
}

func TestSugar_RegistersVerbs(t *testing.T) {
	t.Parallel()

	r := &fakeRouter{}
	body := func(*http.Request, sugarIn) (any, error) { return nil, nil }
	none := func(*http.Request) (any, error) { return nil, nil }

	PostJSON(r, "/a", body)
	PatchJSON(r, "/b", body)
	Get(r, "/c", none)
	Post(r, "/d", none)

	want := []routeCall{{"POST", "/a"}, {"PATCH", "/b"}, {"GET", "/c"}, {"POST", "/d"}}
	if !reflect.DeepEqual(r.calls, want) {
		t.Fatalf("calls = %v", r.calls)
	}
}

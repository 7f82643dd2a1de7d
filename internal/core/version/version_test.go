package version

import (
	"runtime"
	"testing"

	"wikidomains/internal/platform/testkit"
)

func TestInfo(t *testing.T) {
	t.Parallel()

	i := Info()
	if i.Service != "wikidomains" || i.Version != "dev" || i.Commit == "" || i.Date == "" {
		t.Fatalf("info = %+v", i)
	}
	if i.Go != runtime.Version() {
		t.Fatalf("go = %q", i.Go)
	}
}

func TestUserAgent(t *testing.T) {
	testkit.Serial(t)

	if got := UserAgent(); got != "wikidomains/dev" {
		t.Fatalf("unstamped ua = %q", got)
	}

	testkit.Swap(t, &version, "v1.4.0")
	testkit.Swap(t, &commit, "abc1234")
	if got := UserAgent(); got != "wikidomains/v1.4.0 (abc1234)" {
		t.Fatalf("stamped ua = %q", got)
	}
}

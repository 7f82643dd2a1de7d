package config

import (
	"testing"
	"time"

	kit "wikidomains/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	c := New().Prefix("CLOUDFLARE_")
	if got := c.Key("ZONE_ID"); got != "CLOUDFLARE_ZONE_ID" {
		t.Fatalf("Key = %q", got)
	}
	if got := c.Prefix("HTTP_").Key("TIMEOUT"); got != "CLOUDFLARE_HTTP_TIMEOUT" {
		t.Fatalf("nested Key = %q", got)
	}
}

func TestMustAccessors(t *testing.T) {
	c := New().Prefix("MUST_")
	t.Setenv("MUST_NAME", "  wikidomains ")
	t.Setenv("MUST_N", "42")
	t.Setenv("MUST_BAD_N", "4x")
	t.Setenv("MUST_D", "15s")
	t.Setenv("MUST_URL", "https://api.cloudflare.com/client/v4")
	t.Setenv("MUST_REL", "/client/v4")

	if got := c.MustString("NAME"); got != "wikidomains" {
		t.Fatalf("MustString = %q", got)
	}
	if got := c.MustInt("N"); got != 42 {
		t.Fatalf("MustInt = %d", got)
	}
	if got := c.MustDuration("D"); got != 15*time.Second {
		t.Fatalf("MustDuration = %v", got)
	}
	if got := c.MustURL("URL"); got.Host != "api.cloudflare.com" {
		t.Fatalf("MustURL host = %q", got.Host)
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
	kit.MustPanic(t, func() { _ = c.MustInt("BAD_N") })
	kit.MustPanic(t, func() { _ = c.MustURL("REL") })
}

func TestRequireAndHas(t *testing.T) {
	c := New().Prefix("REQ_")
	t.Setenv("REQ_A", "x")
	t.Setenv("REQ_WS", "   ")

	kit.MustNotPanic(t, func() { c.Require("A") })
	kit.MustPanic(t, func() { c.Require("A", "WS") })
	if !c.Has("A") || c.Has("WS") {
		t.Fatalf("Has mismatch")
	}
}

func TestMayAccessorsFallBack(t *testing.T) {
	c := New().Prefix("MAY_")
	t.Setenv("MAY_INT", "nope")
	t.Setenv("MAY_BOOL", "maybe")
	t.Setenv("MAY_DUR", "soon")
	t.Setenv("MAY_OK_BOOL", "true")

	if got := c.MayString("MISS", "def"); got != "def" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayInt("INT", 4); got != 4 {
		t.Fatalf("MayInt invalid = %d", got)
	}
	if got := c.MayBool("BOOL", false); got {
		t.Fatalf("MayBool invalid should use default")
	}
	if got := c.MayBool("OK_BOOL", false); !got {
		t.Fatalf("MayBool valid = %v", got)
	}
	if got := c.MayDuration("DUR", 10*time.Second); got != 10*time.Second {
		t.Fatalf("MayDuration invalid = %v", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	t.Setenv("CSV_DISALLOWED", " example.com, .test , ,wikitide.net ,, ")
	t.Setenv("CSV_EMPTY", " , , ")

	got := c.MayCSV("DISALLOWED", nil)
	want := []string{"example.com", ".test", "wikitide.net"}
	if len(got) != len(want) {
		t.Fatalf("MayCSV = %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MayCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := c.MayCSV("EMPTY", []string{"fallback"}); len(got) != 1 || got[0] != "fallback" {
		t.Fatalf("MayCSV all-empty = %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	t.Setenv("E_FMT", "Console")
	t.Setenv("E_BAD", "xml")

	if got := c.MayEnum("MISS", "json", "json", "console"); got != "json" {
		t.Fatalf("MayEnum default = %q", got)
	}
	if got := c.MayEnum("FMT", "json", "json", "console"); got != "console" {
		t.Fatalf("MayEnum canonical = %q", got)
	}
	if got := c.MayEnum("MISS", "", "json"); got != "" {
		t.Fatalf("MayEnum empty default = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "json", "json", "console") })
}

package raw

import "testing"

func TestGetters(t *testing.T) {
	t.Setenv("LOG_LEVEL", " info ")
	t.Setenv("LOG_CALLER", "YES")
	t.Setenv("LOG_PRETTY", "off")
	t.Setenv("LOG_SAMPLE_EVERY", "10")
	t.Setenv("LOG_BAD_INT", "-3")

	c := New().Prefix("LOG_")

	if got := c.Get("LEVEL", "debug"); got != "info" {
		t.Fatalf("Get = %q", got)
	}
	if got := c.Get("MISSING", "debug"); got != "debug" {
		t.Fatalf("Get default = %q", got)
	}
	if !c.GetBool("CALLER", false) {
		t.Fatalf("GetBool(YES) = false")
	}
	if c.GetBool("PRETTY", true) {
		t.Fatalf("GetBool(off) = true")
	}
	if !c.GetBool("UNSET", true) {
		t.Fatalf("GetBool default ignored")
	}
	if got := c.GetInt("SAMPLE_EVERY", 0); got != 10 {
		t.Fatalf("GetInt = %d", got)
	}
	if got := c.GetInt("BAD_INT", 7); got != 7 {
		t.Fatalf("GetInt negative = %d", got)
	}
}

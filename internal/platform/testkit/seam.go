package testkit

import (
	"sync"
	"testing"
)

var serial sync.Mutex

// Swap replaces *target until the test ends
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	prev := *target
	*target = replacement
	t.Cleanup(func() { *target = prev })
}

// Serial holds a process wide lock for the rest of the test
// use it in tests that Swap package level state shared with parallel tests
func Serial(t *testing.T) {
	t.Helper()
	serial.Lock()
	t.Cleanup(serial.Unlock)
}

// Env exports vars under prefix for the rest of the test and returns prefix,
// ready for config.New().Prefix. t.Setenv is used underneath, so callers cannot be parallel
func Env(t *testing.T, prefix string, vars map[string]string) string {
	t.Helper()
	for k, v := range vars {
		t.Setenv(prefix+k, v)
	}
	return prefix
}

// Package strings holds the few string helpers shared by config, routing and the CLIs
package strings

import std "strings"

// Or returns def when in has no elements
func Or[T any](in, def []T) []T {
	if len(in) > 0 {
		return in
	}
	return def
}

// Required panics with "<what> is required" when s is blank
func Required(s, what string) string {
	if std.TrimSpace(s) == "" {
		panic(what + " is required")
	}
	return s
}

// MustPrefix turns " meta/ " or "//{kind}/requests" into a mount path with
// one leading slash and no trailing one; a bare root panics
func MustPrefix(s string) string {
	p := std.Trim(std.TrimSpace(s), "/ ")
	if p == "" {
		panic("root path is required")
	}
	return "/" + p
}

// SplitTrim splits s on sep and keeps the non blank parts, trimmed
func SplitTrim(s, sep string) []string {
	var out []string
	for part := range std.SplitSeq(s, sep) {
		part = std.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

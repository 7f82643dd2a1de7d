// Package normalize cleans user supplied text before it is validated or stored
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var textPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)), // zero width and bidi controls
		)
	},
}

var identPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			width.Fold,
			cases.Fold(),
		)
	},
}

func apply(p *sync.Pool, s string) string {
	tr := p.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	p.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// Text normalizes free text such as reasons and comments
// NFC, no control or format characters, CRLF folded to LF, outer whitespace trimmed
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = apply(&textPool, Sanitize(s))
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// Ident folds an identifier such as a wiki database name to its canonical form
// compatibility forms and fullwidth letters fold to ASCII and case is folded
func Ident(s string) string {
	s = strings.TrimSpace(Sanitize(s))
	if s == "" {
		return ""
	}
	return apply(&identPool, s)
}

// Blank reports whether s has no visible content after normalization
func Blank(s string) bool { return Text(s) == "" }

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

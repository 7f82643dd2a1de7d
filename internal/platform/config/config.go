// Package config reads settings from the environment, one prefix per component
// (SERVICE_PGSQL_, REQUESTS_, CLOUDFLARE_ ...)
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"wikidomains/internal/platform/logger"
	pstrings "wikidomains/internal/platform/strings"
)

// Conf looks keys up under its prefix; the zero value reads unprefixed names
type Conf struct{ prefix string }

// New is the root view
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key is the environment variable name k resolves to
func (c Conf) Key(k string) string { return c.prefix + k }

// get is the trimmed value; blank counts as unset
func (c Conf) get(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(c.Key(key)))
	return v, v != ""
}

// Has reports whether key is set to something non blank
func (c Conf) Has(key string) bool {
	_, ok := c.get(key)
	return ok
}

// Require panics on the first key that is unset
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if !c.Has(k) {
			c.fatal(k, "", "missing required env")
		}
	}
}

func (c Conf) fatal(key, value, msg string) {
	ev := logger.Get().Panic().Str("key", c.Key(key))
	if value != "" {
		ev = ev.Str("value", value)
	}
	ev.Msg(msg)
}

// required values: unset or unparsable panics at boot

func (c Conf) MustString(key string) string {
	v, ok := c.get(key)
	if !ok {
		c.fatal(key, "", "missing required env")
	}
	return v
}

func (c Conf) MustInt(key string) int { return must(c, key, strconv.Atoi, "invalid int value") }

func (c Conf) MustDuration(key string) time.Duration {
	return must(c, key, time.ParseDuration, "invalid duration, want 250ms, 2s, 1h")
}

// MustURL also rejects relative urls
func (c Conf) MustURL(key string) *url.URL { return must(c, key, absURL, "invalid absolute URL") }

func must[T any](c Conf, key string, parse func(string) (T, error), msg string) T {
	s := c.MustString(key)
	v, err := parse(s)
	if err != nil {
		c.fatal(key, s, msg)
	}
	return v
}

func absURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err == nil && !u.IsAbs() {
		err = errors.New("not an absolute url")
	}
	return u, err
}

// optional values: unset gives def, unparsable logs a warning and gives def

func (c Conf) MayString(key, def string) string {
	if v, ok := c.get(key); ok {
		return v
	}
	return def
}

func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma list, dropping blanks; an all blank list gives def
func (c Conf) MayCSV(key string, def []string) []string {
	s, _ := c.get(key)
	return pstrings.Or(pstrings.SplitTrim(s, ","), def)
}

// MayEnum returns the allowed spelling of the value, matched case insensitively
// anything outside allowed panics
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return ""
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	logger.Get().Panic().Str("key", c.Key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s, ok := c.get(key)
	if !ok {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Interface("default", def).Msg("invalid value, using default")
		return def
	}
	return v
}

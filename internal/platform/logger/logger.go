// Package logger owns the process root zerolog logger and the context fields
// (request id, actor, job) that child loggers pick up
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"wikidomains/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the project logging type
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level        string
	Format       string // console or json
	Service      string
	Component    string
	Writer       io.Writer
	WithCaller   bool
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv reads LOG_* through the raw view, config itself logs through us
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       rc.Get("LEVEL", "debug"),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", "wikidomains"),
		Component:   rc.Get("COMPONENT", ""),
		WithCaller:  rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	initOnce sync.Once
	root     *Logger
)

// Init builds the root logger; later calls are ignored
func Init(opt Options) { initOnce.Do(func() { root = build(opt) }) }

// Get returns the root logger, built from the environment if Init was never called
func Get() *Logger {
	initOnce.Do(func() { root = build(FromEnv()) })
	return root
}

func build(opt Options) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := opt.Writer
	if w == nil {
		w = os.Stdout
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	c := zerolog.New(w).Level(levelOf(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok {
		c = c.Str("go_version", bi.GoVersion)
	}
	static := map[string]string{"service": opt.Service, "component": opt.Component}
	for k, v := range opt.StaticFields {
		static[k] = v
	}
	for k, v := range static {
		if v != "" {
			c = c.Str(k, v)
		}
	}
	if opt.WithCaller {
		c = c.Caller()
	}

	l := c.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return &l
}

// levelOf parses a level name, anything unknown logs at debug
func levelOf(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		return zerolog.DebugLevel
	}
	return lvl
}

type fieldsKey struct{}

// field is one context value added to every C logger
type field struct{ k, v string }

// WithFields returns ctx carrying extra key/value pairs for C; empty values are dropped
func WithFields(ctx context.Context, kv ...string) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]field)
	next := append([]field(nil), prev...)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			next = append(next, field{kv[i], kv[i+1]})
		}
	}
	if len(next) == len(prev) {
		return ctx
	}
	return context.WithValue(ctx, fieldsKey{}, next)
}

// WithRequest tags ctx with the http request id and the acting user
func WithRequest(ctx context.Context, reqID, actor string) context.Context {
	return WithFields(ctx, "request_id", reqID, "actor", actor)
}

// WithJob tags ctx with the queue job and the domain request it works on
func WithJob(ctx context.Context, jobID string, requestID int64) context.Context {
	return WithFields(ctx, "job_id", jobID, "domain_request", strconv.FormatInt(requestID, 10))
}

// C is the root logger plus the fields carried by ctx
func C(ctx context.Context) *Logger {
	fs, _ := ctx.Value(fieldsKey{}).([]field)
	if len(fs) == 0 {
		return Get()
	}
	c := Get().With()
	for _, f := range fs {
		c = c.Str(f.k, f.v)
	}
	l := c.Logger()
	return &l
}

// Named is the root logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}

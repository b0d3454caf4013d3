// Package logger owns the process logger. The cmd binaries call Init once
// with the configured level and format; packages receive a Component child
// through their constructors. Entries are JSON lines tagged with the service
// name so the API and the migrate tool can share a sink.
package logger

import (
	"cmp"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Init.
type Options struct {
	Level   string    // trace, debug, info, warn or error; info otherwise
	Pretty  bool      // console output for local runs
	Output  io.Writer // os.Stdout when nil
	Service string    // "service" field, clinic-api when empty
}

var (
	mu   sync.RWMutex
	root *zerolog.Logger
)

// Init builds the process logger on the first call and returns it. Later
// calls return the logger already built and ignore opts.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		l := build(opts)
		root = &l
	}
	return *root
}

func build(opts Options) zerolog.Logger {
	var w io.Writer = os.Stdout
	if opts.Output != nil {
		w = opts.Output
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl := parseLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", cmp.Or(opts.Service, "clinic-api")).
		Caller().
		Logger()
}

// Get returns the process logger. It panics when Init has not run.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		panic("logger: Get called before Init")
	}
	return *root
}

// Component returns a child logger carrying a "component" field such as
// "auth", "store" or "bootstrap".
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset forgets the process logger so tests can Init again.
func Reset() {
	mu.Lock()
	root = nil
	mu.Unlock()
}

// parseLevel accepts zerolog level names, case and padding aside, plus the
// "warning" alias. Anything outside trace..error falls back to info.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return zerolog.WarnLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl < zerolog.TraceLevel || lvl > zerolog.ErrorLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

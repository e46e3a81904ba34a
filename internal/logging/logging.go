// Package logging provides the structured logger used across the gateway.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu    sync.RWMutex
	base  zerolog.Logger
	level = zerolog.InfoLevel
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Configure sets the global log level and output format. debug enables a
// human-readable console writer instead of JSON; levelName is parsed with
// zerolog.ParseLevel and falls back to info on error.
func Configure(levelName string, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	if lvl, err := zerolog.ParseLevel(strings.ToLower(levelName)); err == nil {
		level = lvl
	}

	var w zerolog.ConsoleWriter
	if debug {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		base = zerolog.New(w).With().Timestamp().Logger().Level(level)
		return
	}
	base = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
}

// WithComponent returns a logger tagged with the given component name,
// the pattern every package in this repository uses to obtain its logger.
func WithComponent(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("component", name).Logger()
}

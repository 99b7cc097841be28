// Package logging configures process-wide structured logging.
//
// The terminal belongs to the TUI, so output defaults to a file. Packages
// obtain a named logger with GetLogger and never write to stdout directly.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Logger = *slog.Logger

// Config selects where and how log records are written.
type Config struct {
	// Output is "discard", "stderr", "stdout" or a file path.
	Output string
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	JSON  bool
	// Writer overrides Output when non-nil. Used by tests.
	Writer io.Writer
}

var (
	mu      sync.Mutex
	handler slog.Handler = slog.NewTextHandler(io.Discard, nil)
	closer  io.Closer
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Configure installs the global handler and routes the standard log package
// through it. It returns a function that closes any opened log file.
func Configure(cfg Config) (func() error, error) {
	out := cfg.Writer
	var c io.Closer
	if out == nil {
		switch cfg.Output {
		case "", "discard":
			out = io.Discard
		case "stderr":
			out = os.Stderr
		case "stdout":
			out = os.Stdout
		default:
			f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("opening log file: %w", err)
			}
			out, c = f, f
		}
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	mu.Lock()
	handler = h
	closer = c
	mu.Unlock()

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(h, slog.LevelInfo).Writer())

	return func() error {
		mu.Lock()
		defer mu.Unlock()
		if closer == nil {
			return nil
		}
		err := closer.Close()
		closer = nil
		return err
	}, nil
}

// GetLogger returns a logger tagged with the given component name.
func GetLogger(name string) Logger {
	mu.Lock()
	h := handler
	mu.Unlock()
	return slog.New(h).With("logger", name)
}

// Nop returns a logger that drops everything.
func Nop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelInfo
}

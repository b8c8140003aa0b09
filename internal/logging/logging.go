// Package logging builds the process slog.Logger from the log section of the
// configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/1broseidon/platlayer/internal/config"
	"github.com/1broseidon/platlayer/internal/runtimepath"
)

// DefaultFile selects runtimepath.LogPath as the log file.
const DefaultFile = "default"

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for cfg and a closer for its log file. Without a file
// it writes to stderr, as text on a terminal and JSON otherwise. A file always
// gets JSON.
func New(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.LogConfig, stderr *os.File) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	path := cfg.File
	if path == DefaultFile {
		if path, err = runtimepath.LogPath(); err != nil {
			return nil, nil, err
		}
	}
	if path != "" {
		f, err := OpenRotatingFile(path, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		return slog.New(slog.NewJSONHandler(f, opts)), f, nil
	}

	if stderr != nil && term.IsTerminal(int(stderr.Fd())) {
		return slog.New(slog.NewTextHandler(stderr, opts)), nopCloser{}, nil
	}
	var w io.Writer = io.Discard
	if stderr != nil {
		w = stderr
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nopCloser{}, nil
}

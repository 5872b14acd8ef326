// Package logger provides structured logging using Go 1.21's log/slog,
// plus a registry of named rotating file loggers for per-concern log files.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	// Set as default so log/slog.Info() etc. also use structured output
	slog.SetDefault(logger)

	return logger
}

// Registry hands out named file loggers backed by rotating log files under a
// single directory. Each name maps to exactly one file; asking for the same
// name twice returns the same logger. The registry owns the file handles and
// Close releases all of them, so loggers obtained from it must not be used
// after Close.
type Registry struct {
	dir       string
	level     slog.Level
	maxSizeMB int
	backups   int

	mu      sync.Mutex
	writers map[string]io.WriteCloser
	loggers map[string]*slog.Logger
	closed  bool
}

// NewRegistry creates a Registry writing under dir. Files rotate at 10 MB
// and keep 3 backups.
func NewRegistry(dir string, level slog.Level) *Registry {
	return &Registry{
		dir:       dir,
		level:     level,
		maxSizeMB: 10,
		backups:   3,
		writers:   make(map[string]io.WriteCloser),
		loggers:   make(map[string]*slog.Logger),
	}
}

// File returns the logger writing to <dir>/<name>.log, creating it on first
// use. Returns an error after Close.
func (r *Registry) File(name string) (*slog.Logger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("logger: registry is closed")
	}
	if lg, ok := r.loggers[name]; ok {
		return lg, nil
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(r.dir, name+".log"),
		MaxSize:    r.maxSizeMB,
		MaxBackups: r.backups,
		Compress:   true,
	}
	lg := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: r.level})).
		With(slog.String("file", name))

	r.writers[name] = w
	r.loggers[name] = lg
	return lg, nil
}

// Close closes every file handle the registry opened. Subsequent File calls
// fail instead of silently reopening handles.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	for name, w := range r.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("logger: close %s: %w", name, err)
		}
	}
	r.writers = nil
	r.loggers = nil
	return firstErr
}

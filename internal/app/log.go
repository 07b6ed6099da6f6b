package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for lai.log.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 90
)

// laiHandler is a slog.Handler that writes one tab-separated line per record:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
//
// Each line is written with a single Write under mu, which clones share, so
// records from parallel block workers never interleave.
type laiHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	runID  string
	level  slog.Leveler
	prefix string
	attrs  []slog.Attr
}

func newLaiHandler(w io.Writer, runID string, level slog.Leveler) *laiHandler {
	return &laiHandler{mu: &sync.Mutex{}, w: w, runID: runID, level: level}
}

func (h *laiHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.level == nil {
		return true
	}
	return level >= h.level.Level()
}

func (h *laiHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\t%s\t%s\t%s", r.Time.UTC().Format("2006-01-02T15:04:05Z"), r.Level, h.runID, r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&buf, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&buf, "\t%s%s=%v", h.prefix, a.Key, a.Value)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *laiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

// WithGroup qualifies later keys as group.key.
func (h *laiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// newLogger creates a logger that writes to logDir/lai.log and stderr. The
// file is rotated by size. Debug records are dropped unless debug is set.
// It returns the log file writer for cleanup.
func newLogger(logDir, runID string, debug bool) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "lai.log"),
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := newLaiHandler(io.MultiWriter(f, os.Stderr), runID, level)
	return slog.New(h), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy lai.Logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }

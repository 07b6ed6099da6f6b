package app

import (
	"bytes"
	"context"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLaiHandler_Handle(t *testing.T) {
	ts := time.Date(2026, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		runID   string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			runID:   "run-123",
			level:   slog.LevelInfo,
			message: "bundle sealed",
			want:    "2026-06-15T14:30:45Z\tINFO\trun-123\tbundle sealed\n",
		},
		{
			name:    "warn level",
			runID:   "run-456",
			level:   slog.LevelWarn,
			message: "using private key embedded in bundle",
			want:    "2026-06-15T14:30:45Z\tWARN\trun-456\tusing private key embedded in bundle\n",
		},
		{
			name:    "with record attrs",
			runID:   "run-789",
			level:   slog.LevelInfo,
			message: "round trip verified",
			attrs:   []slog.Attr{slog.String("bundle_id", "b-1"), slog.Int("blocks", 42)},
			want:    "2026-06-15T14:30:45Z\tINFO\trun-789\tround trip verified\tbundle_id=b-1\tblocks=42\n",
		},
		{
			name:    "big integer attr",
			runID:   "run-1",
			level:   slog.LevelDebug,
			message: "transform step",
			attrs:   []slog.Attr{slog.Any("s", big.NewInt(10006))},
			want:    "2026-06-15T14:30:45Z\tDEBUG\trun-1\ttransform step\ts=10006\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newLaiHandler(&buf, tt.runID, nil)

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLaiHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newLaiHandler(&buf, "run-1", nil)
	h.attrs = []slog.Attr{slog.String("a", "1")}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "vault")}).(*laiHandler)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "upload", 0)
	r.AddAttrs(slog.String("key", "abc"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"a=1", "component=vault", "key=abc"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q is missing %q", got, want)
		}
	}
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
}

func TestLaiHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLaiHandler(&buf, "run-1", nil))

	logger.WithGroup("cipher").With("name", "lai").Info("ready", "workers", 4)

	got := buf.String()
	for _, want := range []string{"cipher.name=lai", "cipher.workers=4"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q is missing %q", got, want)
		}
	}
}

// chunkWriter hands each Write to the underlying buffer in small pieces, the
// way a pipe or terminal may, so unsynchronized writers would interleave.
type chunkWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	for i := 0; i < len(p); i += 4 {
		end := min(i+4, len(p))
		w.mu.Lock()
		w.buf.Write(p[i:end])
		w.mu.Unlock()
	}
	return len(p), nil
}

func TestLaiHandler_ConcurrentRecords(t *testing.T) {
	const (
		workers = 16
		records = 200
	)

	w := &chunkWriter{}
	logger := slog.New(newLaiHandler(w, "run-1", slog.LevelDebug)).With("cipher", "lai")

	var wg sync.WaitGroup
	for i := range workers {
		wg.Go(func() {
			for j := range records {
				logger.Debug("transform step", "worker", i, "s", j, "x", big.NewInt(10006))
			}
		})
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(w.buf.String(), "\n"), "\n")
	if len(lines) != workers*records {
		t.Fatalf("got %d lines, want %d", len(lines), workers*records)
	}
	for i, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) != 8 || fields[3] != "transform step" || fields[4] != "cipher=lai" {
			t.Fatalf("line %d is malformed: %q", i, line)
		}
	}
}

func TestLaiHandler_Enabled(t *testing.T) {
	all := &laiHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !all.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = false without a level, want true", level)
		}
	}

	info := &laiHandler{level: slog.LevelInfo}
	if info.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(DEBUG) = true at INFO level")
	}
	if !info.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Enabled(WARN) = false at INFO level")
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "run-1", false)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Debug("hidden")
	logger.Info("visible", "n", 1)

	data, err := os.ReadFile(filepath.Join(dir, "lai.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug record written without debug enabled")
	}
	if !strings.Contains(string(data), "\trun-1\tvisible\tn=1") {
		t.Errorf("log file = %q, want the info record", data)
	}
}

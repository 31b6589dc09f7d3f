// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larsks/snarl/pkg/snarl"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured slog.Level
		verbosity  int
		want       slog.Level
	}{
		{name: "configured", configured: slog.LevelWarn, want: slog.LevelWarn},
		{name: "one", configured: slog.LevelWarn, verbosity: 1, want: slog.LevelInfo},
		{name: "two", configured: slog.LevelWarn, verbosity: 2, want: slog.LevelDebug},
		{name: "three", configured: slog.LevelWarn, verbosity: 3, want: snarl.LevelTrace},
		{name: "many", configured: slog.LevelError, verbosity: 7, want: snarl.LevelTrace},
		{name: "config already lower", configured: slog.LevelDebug, verbosity: 1, want: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Level(tt.configured, tt.verbosity); got != tt.want {
				t.Errorf("Level(%v, %d) = %v, want %v", tt.configured, tt.verbosity, got, tt.want)
			}
		})
	}
}

func TestNew_Terminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Level: slog.LevelInfo, Stderr: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer logger.Close()

	logger.Debug("hidden")
	logger.Info("wrote file", "path", "out.txt")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record leaked at info level:\n%s", out)
	}
	for _, want := range []string{prefix, "wrote file", "out.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNew_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snarl.log")
	logger, err := New(Options{Level: snarl.LevelTrace, File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Log(t.Context(), snarl.LevelTrace, "line", "line", 3)
	logger.Warn("careful")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d records, want 2:\n%s", len(lines), data)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["level"] != "TRACE" || rec["msg"] != "line" {
		t.Errorf("first record = %v", rec)
	}
}

func TestNew_BadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "snarl.log")
	if _, err := New(Options{File: path}); err == nil {
		t.Error("New() with unwritable log file should fail")
	}
}

func TestToJournalKey(t *testing.T) {
	t.Parallel()

	if got := toJournalKey("block.label-2"); got != "BLOCK_LABEL_2" {
		t.Errorf("toJournalKey() = %q", got)
	}
}

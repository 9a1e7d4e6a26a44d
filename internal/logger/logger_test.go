package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inventorycam/internal/config"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()

	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir, LogLevel: "info"})
	t.Cleanup(func() { l.Close() })
	return l, dir
}

func readLog(t *testing.T, dir, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Info("camera started on %s", "0")
	l.Warning("surface not ready")
	l.Error("upload failed: %v", "timeout")

	if got := readLog(t, dir, InfoFile); !strings.Contains(got, "camera started on 0") {
		t.Errorf("info.log missing entry, got: %q", got)
	}
	if got := readLog(t, dir, WarningFile); !strings.Contains(got, "surface not ready") {
		t.Errorf("warning.log missing entry, got: %q", got)
	}
	if got := readLog(t, dir, ErrorFile); !strings.Contains(got, "upload failed: timeout") {
		t.Errorf("error.log missing entry, got: %q", got)
	}

	if got := readLog(t, dir, InfoFile); strings.Contains(got, "upload failed") {
		t.Error("error entries should not land in info.log")
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Error("first failure")
	if err := l.CleanLogs(ErrorFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	if got := readLog(t, dir, ErrorFile); got != "" {
		t.Errorf("Expected empty error.log after clean, got: %q", got)
	}

	l.Error("second failure")
	if got := readLog(t, dir, ErrorFile); !strings.Contains(got, "second failure") {
		t.Errorf("Logging should continue after clean, got: %q", got)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("dropped")
	l.Error("dropped too")

	if err := l.CleanLogs(InfoFile); err != nil {
		t.Errorf("CleanLogs on discard logger should be a no-op, got %v", err)
	}
}

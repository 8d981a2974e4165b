package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scraper.log")

	log, err := NewLoggerWithFile("info", path)
	if err != nil {
		t.Fatalf("NewLoggerWithFile failed: %v", err)
	}

	log.With("run_id", "abc").Info("fetched items", "count", 3)
	log.Debug("hidden at info level")
	_ = log.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1:\n%s", len(lines), content)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}

	if entry["msg"] != "fetched items" || entry["level"] != "info" || entry["run_id"] != "abc" {
		t.Errorf("unexpected entry: %v", entry)
	}

	if entry["count"] != float64(3) {
		t.Errorf("count = %v, want 3", entry["count"])
	}
}

func TestSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")

	log, err := NewLoggerWithFile("error", path)
	if err != nil {
		t.Fatalf("NewLoggerWithFile failed: %v", err)
	}

	log.Warn("dropped")
	log.SetLevel("debug")
	log.Debug("kept")
	_ = log.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if strings.Contains(string(content), "dropped") || !strings.Contains(string(content), "kept") {
		t.Errorf("unexpected log content:\n%s", content)
	}
}

func TestParseLevel_Default(t *testing.T) {
	if got := parseLevel("verbose"); got.String() != "info" {
		t.Errorf("parseLevel(verbose) = %s, want info", got)
	}
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Error("discarded", "k", "v")

	if err := log.Sync(); err != nil {
		t.Errorf("Sync on nop logger = %v", err)
	}
}

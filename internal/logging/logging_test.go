package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"safetyintel/internal/config"
)

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"})
	logger.Info("fetched incidents", "count", 3)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "fetched incidents" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogConfig{Level: "warn"})
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogConfig{Level: "chatty"})
	logger.Debug("debug line")
	logger.Info("info line")
	if strings.Contains(buf.String(), "debug line") {
		t.Fatal("debug should be filtered by the info fallback")
	}
	if !strings.Contains(buf.String(), "info line") {
		t.Fatal("info should be logged")
	}
}

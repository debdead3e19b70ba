package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"airwatch-server/internal/config"
)

func TestNew_prodWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}
	logger := NewWithWriter(&buf, cfg, "1.2.3", "airwatch")

	logger.Debug("hidden")
	logger.Info("rendered", "view", "map")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for k, want := range map[string]string{
		"msg": "rendered", "app": "airwatch", "version": "1.2.3", "env": "prod", "view": "map",
	} {
		if rec[k] != want {
			t.Errorf("%s = %v, want %q", k, rec[k], want)
		}
	}
}

func TestNew_devWritesText(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "dev", LogLevel: slog.LevelDebug}
	logger := NewWithWriter(&buf, cfg, "dev", "airwatch")

	logger.Debug("tick", "n", 3)

	out := buf.String()
	if !strings.Contains(out, "tick") || !strings.Contains(out, "airwatch") {
		t.Errorf("output = %q, want message and app name", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("dev output looks like JSON: %q", out)
	}
}

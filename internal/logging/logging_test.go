package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "airpods-monitor.log")

	log := newLogger(&console, path, "debug")
	log.Debug().Str("name", "AirPods Pro").Msg("Device state changed")

	if !strings.Contains(console.String(), "Device state changed") {
		t.Errorf("console output missing message: %q", console.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"name":"AirPods Pro"`) {
		t.Errorf("log file missing structured field: %q", data)
	}
}

func TestNewFallsBackToConsole(t *testing.T) {
	var console bytes.Buffer

	// A regular file where the log directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	log := newLogger(&console, filepath.Join(blocker, "app.log"), "info")
	log.Info().Msg("still logging")

	out := console.String()
	if !strings.Contains(out, "Logging to console only") || !strings.Contains(out, "still logging") {
		t.Errorf("unexpected console output: %q", out)
	}
}

func TestNewLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		var console bytes.Buffer
		log := newLogger(&console, filepath.Join(t.TempDir(), "app.log"), tt.level)
		if got := log.GetLevel(); got != tt.want {
			t.Errorf("level %q: expected %s, got %s", tt.level, tt.want, got)
		}
	}
}

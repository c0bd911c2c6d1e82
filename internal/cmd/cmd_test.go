package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const aacInventory = `{"SPBluetoothDataType": [{"device_connected": [{"AirPods Pro": {"device_minorType": "Headphones", "device_audio_codec": "AAC"}}]}]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Keep log files out of the user's state dir
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv("LOCALAPPDATA", dir)

	configFile, logLevel = "", ""
	statusCmd.Flags().Set("json", "false")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeInventoryConfig points the inventory at a file printed by cat
func writeInventoryConfig(t *testing.T, inventory string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/cat and /bin/sh")
	}

	dir := t.TempDir()
	report := filepath.Join(dir, "inventory.json")
	if err := os.WriteFile(report, []byte(inventory), 0644); err != nil {
		t.Fatal(err)
	}

	body := `
log_level: error
inventory:
  command: /bin/cat
  args: ["` + report + `"]
  timeout: 5s
audio:
  source: command
  command: /bin/sh
  args: ["-c", "exit 1"]
accessory:
  source: command
  command: airpods-monitor-missing-utility
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("interval: 42s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "--config", path)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "# "+path) || !strings.Contains(out, "interval: 42s") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestConfigCommandInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("audio:\n  source: alsa\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "config", "--config", path); err == nil {
		t.Error("expected an error for an unknown audio source")
	}
}

func TestStatusCommandLines(t *testing.T) {
	out, err := execute(t, "status", "--config", writeInventoryConfig(t, aacInventory))
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	want := "Device: AirPods Pro\nProfile: Music\nCodec: AAC\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestStatusCommandJSON(t *testing.T) {
	out, err := execute(t, "status", "--json", "--config", writeInventoryConfig(t, aacInventory))
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !report.Connected || report.Device == nil || report.Device.Name != "AirPods Pro" {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Title != "🎧 Music" {
		t.Errorf("unexpected title %q", report.Title)
	}
	if report.AudioError == "" {
		t.Error("expected the failing audio inventory to be reported")
	}
}

func TestStatusCommandNoDevice(t *testing.T) {
	out, err := execute(t, "status", "--config", writeInventoryConfig(t, `{"SPBluetoothDataType": []}`))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if out != "No AirPods Connected\n" {
		t.Errorf("unexpected output %q", out)
	}
}

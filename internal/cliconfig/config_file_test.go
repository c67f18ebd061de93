package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfigFile(t, `
port = "/dev/ttyUSB1"
baud_rate = 115200
mode = "deflate"
threshold = 240.0
flush_interval = "25ms"
log_path = "/tmp/readings.csv"
watch_config = true
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig = %v", err)
	}

	if fc.Port != "/dev/ttyUSB1" {
		t.Errorf("Port = %v", fc.Port)
	}
	if fc.BaudRate != 115200 {
		t.Errorf("BaudRate = %v", fc.BaudRate)
	}
	if fc.Mode != "deflate" {
		t.Errorf("Mode = %v", fc.Mode)
	}
	if fc.Threshold != 240.0 {
		t.Errorf("Threshold = %v", fc.Threshold)
	}
	if fc.WatchConfig == nil || !*fc.WatchConfig {
		t.Error("WatchConfig not parsed")
	}
}

func TestLoadFileConfig_Invalid(t *testing.T) {
	path := writeConfigFile(t, `port = [broken`)

	if _, err := LoadFileConfig(path); err == nil {
		t.Error("LoadFileConfig on malformed TOML succeeded, want error")
	}
}

func TestApplyFileConfig(t *testing.T) {
	fc := FileConfig{
		Port:          "/dev/ttyACM0",
		BaudRate:      57600,
		Threshold:     40,
		FlushInterval: "100ms",
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("ApplyFileConfig = %v", err)
	}

	if cfg.Port != "/dev/ttyACM0" {
		t.Errorf("Port = %v", cfg.Port)
	}
	if cfg.BaudRate != 57600 {
		t.Errorf("BaudRate = %v", cfg.BaudRate)
	}
	if cfg.Threshold != 40.0 {
		t.Errorf("Threshold = %v", cfg.Threshold)
	}
	if cfg.FlushInterval != 100*time.Millisecond {
		t.Errorf("FlushInterval = %v", cfg.FlushInterval)
	}
}

func TestApplyFileConfig_RespectsChangedFlags(t *testing.T) {
	fc := FileConfig{Port: "/dev/file", BaudRate: 57600}

	cfg := DefaultConfig()
	cfg.Port = "/dev/flag"
	changed := map[string]bool{"port": true}

	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig = %v", err)
	}

	if cfg.Port != "/dev/flag" {
		t.Errorf("Port = %v, want flag value preserved", cfg.Port)
	}
	if cfg.BaudRate != 57600 {
		t.Errorf("BaudRate = %v, want file value applied", cfg.BaudRate)
	}
}

func TestApplyFileConfig_BadDuration(t *testing.T) {
	fc := FileConfig{FlushInterval: "soon"}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, nil); err == nil {
		t.Error("ApplyFileConfig with bad duration succeeded, want error")
	}
}

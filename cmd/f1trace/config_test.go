package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDecodeConfig(t *testing.T) {
	cfg := defaultConfig()
	src := "device: /dev/ttyACM1\nread_timeout: 250ms\nlog_level: debug\n"
	if err := decodeConfig(strings.NewReader(src), cfg); err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.Device != "/dev/ttyACM1" || cfg.ReadTimeout != 250*time.Millisecond || cfg.LogLevel != "debug" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	// Unset keys keep their defaults
	if cfg.Baud != 115200 {
		t.Errorf("Expected default baud, got %d", cfg.Baud)
	}
}

func TestDecodeConfigUnknownKey(t *testing.T) {
	if err := decodeConfig(strings.NewReader("speed: 9600\n"), defaultConfig()); err == nil {
		t.Errorf("Expected unknown keys to be rejected")
	}
}

func TestDecodeConfigEmpty(t *testing.T) {
	cfg := defaultConfig()
	if err := decodeConfig(strings.NewReader(""), cfg); err != nil {
		t.Errorf("Expected an empty file to be accepted, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f1trace.yaml")
	if err := os.WriteFile(path, []byte("baud: 57600\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Baud != 57600 || cfg.Device != "/dev/ttyUSB0" {
		t.Errorf("Unexpected config %+v", cfg)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := parseLevel("debug"); err != nil || l != slog.LevelDebug {
		t.Errorf("parseLevel(debug) = %v, %v", l, err)
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Errorf("Expected an unknown level to fail")
	}
}

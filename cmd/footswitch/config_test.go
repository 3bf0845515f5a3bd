package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "editor.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if _, err := LoadConfig(path, true); err == nil {
		t.Error("required missing file loaded without error")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
device: http://10.0.0.7
api_key: abc
poll_interval: 1s
debounce: 100ms
max_rounds: 8
`)
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Device != "http://10.0.0.7" || cfg.APIKey != "abc" {
		t.Errorf("device/key = %q/%q", cfg.Device, cfg.APIKey)
	}
	if cfg.PollInterval != time.Second || cfg.Debounce != 100*time.Millisecond || cfg.MaxRounds != 8 {
		t.Errorf("timings = %+v", cfg)
	}
	// unset keys keep their defaults
	if cfg.Grace != DefaultConfig().Grace || cfg.RequestsPerSecond != DefaultConfig().RequestsPerSecond {
		t.Errorf("defaults lost: %+v", cfg)
	}

	opts, rec := cfg.sessionOptions()
	if opts.Debounce != 100*time.Millisecond || opts.MaxRounds != 8 || rec.Interval != time.Second {
		t.Errorf("options = %+v / %+v", opts, rec)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "device: [", "parse config"},
		{"bad duration", "grace: soon", "parse config"},
		{"zero poll", "poll_interval: 0s", "poll_interval must be positive"},
		{"negative grace", "grace: -1s", "grace must not be negative"},
		{"zero rate", "requests_per_second: 0", "requests_per_second must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body), true)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

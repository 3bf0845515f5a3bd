package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/micro-nova/footswitch-go/internal/autosave"
	"github.com/micro-nova/footswitch-go/internal/client"
	"github.com/micro-nova/footswitch-go/internal/editor"
)

// Config is the editor configuration file.
type Config struct {
	// Device is the device URL or host. Empty means discover over mDNS.
	Device string `yaml:"device"`
	// APIKey is sent with every request when the device has keys configured.
	APIKey string `yaml:"api_key"`

	PollInterval      time.Duration `yaml:"poll_interval"`
	Grace             time.Duration `yaml:"grace"`
	Debounce          time.Duration `yaml:"debounce"`
	MaxRounds         int           `yaml:"max_rounds"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() Config {
	return Config{
		PollInterval:      editor.DefaultPollInterval,
		Grace:             editor.DefaultGrace,
		Debounce:          autosave.DefaultQuiescence,
		MaxRounds:         autosave.DefaultMaxRounds,
		RequestsPerSecond: client.DefaultRequestsPerSecond,
	}
}

// DefaultConfigPath is ~/.config/footswitch/editor.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "editor.yaml"
	}
	return filepath.Join(home, ".config", "footswitch", "editor.yaml")
}

// LoadConfig reads path over the defaults. A missing file is an error only
// when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the editor cannot run with.
func (c Config) Validate() error {
	switch {
	case c.PollInterval <= 0:
		return errors.New("poll_interval must be positive")
	case c.Grace < 0:
		return errors.New("grace must not be negative")
	case c.Debounce <= 0:
		return errors.New("debounce must be positive")
	case c.RequestsPerSecond <= 0:
		return errors.New("requests_per_second must be positive")
	}
	return nil
}

// sessionOptions maps the file settings onto the editor's options.
func (c Config) sessionOptions() (editor.Options, editor.ReconcilerOptions) {
	return editor.Options{Debounce: c.Debounce, MaxRounds: c.MaxRounds},
		editor.ReconcilerOptions{Interval: c.PollInterval, Grace: c.Grace}
}

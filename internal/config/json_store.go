package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/micro-nova/footswitch-go/internal/models"
)

const (
	configFileName = "device.json"
	corruptSuffix  = ".corrupt"
	debounceDelay  = 500 * time.Millisecond
)

// JSONStore keeps the device state in one JSON file. Saves are encoded right
// away and written after debounceDelay of quiet; a save that encodes to the
// bytes already on disk is dropped.
type JSONStore struct {
	path     string
	defaults Defaults

	mu      sync.Mutex
	timer   *time.Timer
	pending []byte // encoded state waiting for the timer, nil when none
	written []byte // last bytes known to be on disk
	lastErr error  // failure of a background write, reported by Flush
}

// NewJSONStore creates a store for device.json in configDir.
func NewJSONStore(configDir string, defaults Defaults) *JSONStore {
	return &JSONStore{
		path:     filepath.Join(configDir, configFileName),
		defaults: defaults,
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads and repairs the saved state. A missing file yields the defaults.
// A file that does not parse is renamed to device.json.corrupt so the next
// save cannot destroy it, and the defaults are returned.
func (s *JSONStore) Load() (*models.DeviceState, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		def := s.defaults.state()
		return &def, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var state models.DeviceState
	if err := json.Unmarshal(data, &state); err != nil {
		aside := s.path + corruptSuffix
		slog.Warn("config: corrupt device state, using defaults", "path", s.path, "moved_to", aside, "err", err)
		if rerr := os.Rename(s.path, aside); rerr != nil {
			slog.Warn("config: could not move corrupt state aside", "err", rerr)
		}
		def := s.defaults.state()
		return &def, nil
	}

	migrateState(&state, s.defaults)

	// Remember what is on disk only if it already matches the repaired form;
	// otherwise the first save must rewrite the file.
	if repaired, err := encodeState(&state); err == nil && bytes.Equal(repaired, data) {
		s.mu.Lock()
		s.written = repaired
		s.mu.Unlock()
	}
	return &state, nil
}

// Save schedules a write of state after debounceDelay of no further saves.
func (s *JSONStore) Save(state *models.DeviceState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if bytes.Equal(data, s.written) {
		s.pending = nil
		return nil
	}
	s.pending = data
	s.timer = time.AfterFunc(debounceDelay, func() {
		if err := s.writePending(); err != nil {
			slog.Error("config: failed to write state", "path", s.path, "err", err)
		}
	})
	return nil
}

// Flush writes any pending state now. It also returns the failure of an
// earlier background write that nothing has retried since.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.writePending()
}

func (s *JSONStore) writePending() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.pending
	if data == nil {
		err := s.lastErr
		s.lastErr = nil
		return err
	}
	if err := writeAtomic(s.path, data); err != nil {
		s.lastErr = err
		return err
	}
	s.pending = nil
	s.written = data
	s.lastErr = nil
	return nil
}

func encodeState(state *models.DeviceState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode device state: %w", err)
	}
	return append(data, '\n'), nil
}

// writeAtomic replaces path with data through a synced temp file in the same
// directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

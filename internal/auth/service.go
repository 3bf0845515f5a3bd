// Package auth implements optional access-key authentication for the device
// API. Keys live in keys.json; with no keys configured the API is open.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const keysFileName = "keys.json"

// Key is one entry of keys.json, indexed by client name.
type Key struct {
	Key     string `json:"key"`
	Created string `json:"created,omitempty"`
}

// Service verifies access keys and keeps them in sync with keys.json.
type Service struct {
	mu        sync.RWMutex
	configDir string
	keys      map[string]Key
	watcher   *fsnotify.Watcher
}

// NewService creates a new auth service watching the given config directory.
// An empty configDir yields a service that is permanently open.
func NewService(configDir string) (*Service, error) {
	s := &Service{
		configDir: configDir,
		keys:      make(map[string]Key),
	}
	if configDir == "" {
		return s, nil
	}

	// Missing file is OK, open mode
	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("auth: could not create fsnotify watcher", "err", err)
		return s, nil
	}
	s.watcher = watcher

	keysPath := s.keysPath()
	if err := watcher.Add(filepath.Dir(keysPath)); err != nil {
		slog.Warn("auth: could not watch config dir", "err", err)
	}

	go s.watchLoop(keysPath)
	return s, nil
}

func (s *Service) keysPath() string {
	return filepath.Join(s.configDir, keysFileName)
}

// Reload re-reads the keys.json file.
func (s *Service) Reload() error {
	data, err := os.ReadFile(s.keysPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mu.Lock()
			s.keys = make(map[string]Key)
			s.mu.Unlock()
			return nil
		}
		return err
	}

	var keys map[string]Key
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if keys == nil {
		keys = make(map[string]Key)
	}

	s.mu.Lock()
	s.keys = keys
	s.mu.Unlock()
	slog.Debug("auth: reloaded keys", "count", len(keys))
	return nil
}

// IsOpenMode returns true if no usable key is configured.
// In open mode, all requests are allowed without authentication.
func (s *Service) IsOpenMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.Key != "" {
			return false
		}
	}
	return true
}

// VerifyKey returns true if the given access key matches any configured key.
// Uses constant-time comparison to prevent timing attacks.
func (s *Service) VerifyKey(key string) bool {
	if key == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(k.Key)) == 1 {
			return true
		}
	}
	return false
}

// Issue generates a fresh key for name, replacing any previous one, and
// writes keys.json. The watcher picks the change up like any other edit.
func (s *Service) Issue(name string) (string, error) {
	if s.configDir == "" {
		return "", errors.New("auth: no config directory")
	}
	if name == "" {
		return "", errors.New("auth: key name is required")
	}

	s.mu.Lock()
	next := make(map[string]Key, len(s.keys)+1)
	for n, k := range s.keys {
		next[n] = k
	}
	key := uuid.NewString()
	next[name] = Key{Key: key, Created: time.Now().UTC().Format(time.RFC3339)}
	s.keys = next
	s.mu.Unlock()

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.configDir, 0755); err != nil {
		return "", err
	}
	tmpPath := s.keysPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, s.keysPath()); err != nil {
		return "", fmt.Errorf("auth: write keys: %w", err)
	}
	return key, nil
}

// Close stops the file watcher.
func (s *Service) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *Service) watchLoop(keysPath string) {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != keysPath {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				if err := s.Reload(); err != nil {
					slog.Warn("auth: failed to reload keys", "err", err)
				}
			case event.Has(fsnotify.Remove):
				_ = s.Reload()
				slog.Info("auth: keys file removed, API is open")
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("auth: watcher error", "err", err)
		}
	}
}

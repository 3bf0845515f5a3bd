package config

import (
	"sync"

	"github.com/micro-nova/footswitch-go/internal/models"
)

// MemStore is an in-memory Store for tests that never writes to disk.
type MemStore struct {
	mu       sync.Mutex
	defaults Defaults
	state    *models.DeviceState
	saves    int
}

// NewMemStore returns an empty in-memory store that loads DefaultDefaults.
func NewMemStore() *MemStore {
	return &MemStore{defaults: DefaultDefaults()}
}

// NewMemStoreWith returns an in-memory store that loads the given defaults.
func NewMemStoreWith(defaults Defaults) *MemStore {
	return &MemStore{defaults: defaults}
}

// Load returns a copy of the stored state, or the defaults if none has been saved yet.
func (m *MemStore) Load() (*models.DeviceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		def := m.defaults.state()
		return &def, nil
	}
	cp := m.state.DeepCopy()
	return &cp, nil
}

// Save stores a deep copy of the given state in memory.
func (m *MemStore) Save(state *models.DeviceState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := state.DeepCopy()
	m.state = &cp
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Flush is a no-op for in-memory stores.
func (m *MemStore) Flush() error { return nil }

// Ensure MemStore implements config.Store
var _ Store = (*MemStore)(nil)

// Package config handles loading and saving footswitch device state.
package config

import "github.com/micro-nova/footswitch-go/internal/models"

// Store is the interface for persisting device state.
type Store interface {
	// Load loads the current state. Returns the default state if no file exists.
	Load() (*models.DeviceState, error)

	// Save persists the state. Implementations may debounce rapid saves.
	Save(state *models.DeviceState) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending state.
	Flush() error
}

// Defaults describes the device a store falls back to when nothing has been
// saved yet.
type Defaults struct {
	Meta      models.Meta
	BankCount int
}

// DefaultDefaults is a stock unit with a single bank.
func DefaultDefaults() Defaults {
	return Defaults{Meta: models.DefaultMeta(), BankCount: 1}
}

func (d Defaults) state() models.DeviceState {
	return models.DefaultDeviceState(d.Meta, d.BankCount)
}

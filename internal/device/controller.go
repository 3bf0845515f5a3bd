// Package device implements the footswitch's configuration state machine:
// the single source of truth the web API reads and replaces.
package device

import (
	"fmt"
	"sync"

	"github.com/micro-nova/footswitch-go/internal/config"
	"github.com/micro-nova/footswitch-go/internal/events"
	"github.com/micro-nova/footswitch-go/internal/models"
)

// Controller is the central state machine of a device.
// All state mutations go through apply, which keeps them atomic,
// persisted and published.
type Controller struct {
	mu    sync.RWMutex
	state models.DeviceState
	store config.Store
	bus   *events.Bus[models.DeviceState]

	// toggle a/b selection per switch; runtime only, never persisted
	toggles map[switchKey]bool
}

// New loads state from the store and returns a controller over it.
func New(store config.Store, bus *events.Bus[models.DeviceState]) (*Controller, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Controller{
		state:   *state,
		store:   store,
		bus:     bus,
		toggles: make(map[switchKey]bool),
	}, nil
}

// State returns a deep copy of the complete device state.
func (c *Controller) State() models.DeviceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.DeepCopy()
}

// apply is the core mutation primitive. It:
//  1. Acquires the write lock
//  2. Makes a deep copy of current state
//  3. Calls fn to modify the copy (fn may return an error to abort)
//  4. If fn succeeds: updates state, schedules save, publishes event
func (c *Controller) apply(fn func(*models.DeviceState) error) (models.DeviceState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.DeepCopy()
	if err := fn(&next); err != nil {
		return models.DeviceState{}, err
	}

	c.state = next
	_ = c.store.Save(&c.state) // debounced, async
	if c.bus != nil {
		c.bus.Publish(c.state.DeepCopy())
	}
	return c.state, nil
}

// asAppError converts an apply failure into the API error currency.
func asAppError(err error) *models.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*models.AppError); ok {
		return appErr
	}
	return models.ErrInternal(err.Error())
}

func checkBank(st *models.DeviceState, bank int) *models.AppError {
	if bank < 0 || bank >= st.Layout.BankCount {
		return models.ErrNotFound(fmt.Sprintf("bank must be 0-%d", st.Layout.BankCount-1))
	}
	return nil
}

func checkButton(st *models.DeviceState, btn int) *models.AppError {
	if btn < 0 || btn >= st.Meta.Buttons {
		return models.ErrNotFound(fmt.Sprintf("btn must be 0-%d", st.Meta.Buttons-1))
	}
	return nil
}

package device

import (
	"github.com/micro-nova/footswitch-go/internal/models"
)

// Meta returns the device capabilities with the current bank count.
func (c *Controller) Meta() models.Meta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.state.Meta
	m.BankCount = c.state.Layout.BankCount
	return m
}

// Layout returns the bank layout.
func (c *Controller) Layout() models.Layout {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Layout.DeepCopy()
}

// SetLayout replaces the bank layout. Per-bank storage is resized by
// position: banks that survive keep their data, new banks get defaults.
func (c *Controller) SetLayout(l models.Layout) (models.Layout, *models.AppError) {
	if l.BankCount < 1 {
		return models.Layout{}, models.ErrInvalidOp("need at least 1 bank")
	}
	state, err := c.apply(func(s *models.DeviceState) error {
		if l.BankCount > s.Meta.MaxBanks {
			return models.ErrInvalidOp("max banks reached")
		}
		s.Layout = models.NormalizeLayout(l, s.Meta.MaxBanks)
		resizeBanks(s)
		c.resetToggles()
		return nil
	})
	if err != nil {
		return models.Layout{}, asAppError(err)
	}
	return state.Layout.DeepCopy(), nil
}

// resizeBanks matches Banks/Buttons to the layout and keeps the live bank
// in range.
func resizeBanks(s *models.DeviceState) {
	n := s.Layout.BankCount
	for len(s.Banks) < n {
		s.Banks = append(s.Banks, models.DefaultBankData(s.Meta.Buttons))
	}
	s.Banks = s.Banks[:n]
	for len(s.Buttons) < n {
		s.Buttons = append(s.Buttons, models.DefaultButtonRow(s.Meta.Buttons))
	}
	s.Buttons = s.Buttons[:n]
	s.Meta.BankCount = n
	if s.Live.Bank >= n {
		s.Live.Bank = n - 1
	}
}

// Bank returns one bank's switch names.
func (c *Controller) Bank(bank int) (models.BankData, *models.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if appErr := checkBank(&c.state, bank); appErr != nil {
		return models.BankData{}, appErr
	}
	return c.state.Banks[bank].DeepCopy(), nil
}

// SetBank replaces one bank's switch names.
func (c *Controller) SetBank(bank int, b models.BankData) (models.BankData, *models.AppError) {
	state, err := c.apply(func(s *models.DeviceState) error {
		if appErr := checkBank(s, bank); appErr != nil {
			return appErr
		}
		s.Banks[bank] = models.NormalizeBankData(b, s.Meta.Buttons)
		return nil
	})
	if err != nil {
		return models.BankData{}, asAppError(err)
	}
	return state.Banks[bank].DeepCopy(), nil
}

// Button returns one button's mapping.
func (c *Controller) Button(bank, btn int) (models.ButtonMap, *models.AppError) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if appErr := checkBank(&c.state, bank); appErr != nil {
		return models.ButtonMap{}, appErr
	}
	if appErr := checkButton(&c.state, btn); appErr != nil {
		return models.ButtonMap{}, appErr
	}
	return c.state.Buttons[bank][btn].DeepCopy(), nil
}

// SetButton replaces one button's mapping.
func (c *Controller) SetButton(bank, btn int, m models.ButtonMap) (models.ButtonMap, *models.AppError) {
	state, err := c.apply(func(s *models.DeviceState) error {
		if appErr := checkBank(s, bank); appErr != nil {
			return appErr
		}
		if appErr := checkButton(s, btn); appErr != nil {
			return appErr
		}
		s.Buttons[bank][btn] = models.NormalizeButtonMap(m, s.Meta.MaxActions).ForWrite()
		return nil
	})
	if err != nil {
		return models.ButtonMap{}, asAppError(err)
	}
	return state.Buttons[bank][btn].DeepCopy(), nil
}

// LED returns the LED brightness.
func (c *Controller) LED() models.LED {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.LED
}

// SetLED replaces the LED brightness.
func (c *Controller) SetLED(l models.LED) (models.LED, *models.AppError) {
	state, err := c.apply(func(s *models.DeviceState) error {
		s.LED = models.LED{Brightness: models.NormalizeBrightness(l.Brightness)}
		return nil
	})
	if err != nil {
		return models.LED{}, asAppError(err)
	}
	return state.LED, nil
}

// LiveState returns the active bank.
func (c *Controller) LiveState() models.LiveState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Live
}

// SetLiveState selects the active bank. Out-of-range banks wrap, the way
// the bank up/down footswitches do.
func (c *Controller) SetLiveState(st models.LiveState) (models.LiveState, *models.AppError) {
	state, err := c.apply(func(s *models.DeviceState) error {
		s.Live.Bank = models.Wrap(st.Bank, s.Layout.BankCount)
		return nil
	})
	if err != nil {
		return models.LiveState{}, asAppError(err)
	}
	return state.Live, nil
}

// StepBank moves the active bank by delta, as the hardware bank switches
// do. It is how the simulator produces hardware-originated changes.
func (c *Controller) StepBank(delta int) models.LiveState {
	state, _ := c.apply(func(s *models.DeviceState) error {
		s.Live.Bank = models.Wrap(s.Live.Bank+delta, s.Layout.BankCount)
		return nil
	})
	return state.Live
}

// FactoryReset restores a default device with the same capabilities.
func (c *Controller) FactoryReset() models.DeviceState {
	state, _ := c.apply(func(s *models.DeviceState) error {
		*s = models.DefaultDeviceState(s.Meta, 1)
		c.resetToggles()
		return nil
	})
	return state.DeepCopy()
}

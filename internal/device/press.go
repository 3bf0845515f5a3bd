package device

import (
	"fmt"
	"log/slog"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/micro-nova/footswitch-go/internal/models"
)

type switchKey struct{ bank, btn int }

// Press simulates pressing switch btn of the live bank and holding it for
// hold. Single and group switches fire the short list on release; short/long
// switches fire the long list once held for LongMs; toggle switches alternate
// between the short (a) and long (b) list on every press.
func (c *Controller) Press(btn int, hold time.Duration) (models.PressResult, *models.AppError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bank := c.state.Live.Bank
	if appErr := checkBank(&c.state, bank); appErr != nil {
		return models.PressResult{}, appErr
	}
	if appErr := checkButton(&c.state, btn); appErr != nil {
		return models.PressResult{}, appErr
	}
	m := c.state.Buttons[bank][btn]

	res := models.PressResult{Bank: bank, Button: btn, List: models.ListShort}
	switch m.PressMode {
	case models.PressShortLong:
		if hold >= time.Duration(c.state.Meta.LongMs)*time.Millisecond {
			res.List = models.ListLong
		}
	case models.PressToggle:
		k := switchKey{bank, btn}
		if c.toggles[k] {
			res.List = models.ListLong
		}
		c.toggles[k] = !c.toggles[k]
	}

	list := m.Short
	if res.List == models.ListLong {
		list = m.Long
	}
	res.Actions = append([]models.Action{}, list...)
	res.MIDI = make([]string, len(res.Actions))
	for i, a := range res.Actions {
		msg := encodeAction(a)
		res.MIDI[i] = fmt.Sprintf("% X", []byte(msg))
		slog.Info("device: midi out", "bank", bank, "btn", btn, "msg", msg.String())
	}
	return res, nil
}

// encodeAction builds the MIDI message for a. Channels are 1-based in the
// configuration and 0-based on the wire.
func encodeAction(a models.Action) midi.Message {
	a = models.NormalizeAction(a)
	ch := uint8(a.Ch - 1)
	if a.Type == models.ActionPC {
		return midi.ProgramChange(ch, uint8(a.A))
	}
	return midi.ControlChange(ch, uint8(a.A), uint8(a.B))
}

// resetToggles forgets every a/b selection. Called with c.mu held.
func (c *Controller) resetToggles() {
	clear(c.toggles)
}

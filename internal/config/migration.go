package config

import (
	"log/slog"

	"github.com/micro-nova/footswitch-go/internal/models"
)

// migrateState repairs a loaded state so every invariant the controller
// relies on holds: limits filled in, names clipped, per-bank storage sized
// to the layout and every value inside the firmware's ranges.
func migrateState(state *models.DeviceState, defaults Defaults) {
	if state.Meta.Buttons <= 0 && defaults.Meta.Buttons > 0 {
		state.Meta.Buttons = defaults.Meta.Buttons
	}
	state.Meta = models.NormalizeMeta(state.Meta)
	meta := state.Meta

	if state.Layout.BankCount < 1 {
		state.Layout.BankCount = len(state.Layout.Banks)
	}
	if state.Layout.BankCount > meta.MaxBanks {
		slog.Warn("config: too many banks, truncating", "banks", state.Layout.BankCount, "max", meta.MaxBanks)
	}
	state.Layout = models.NormalizeLayout(state.Layout, meta.MaxBanks)
	n := state.Layout.BankCount
	state.Meta.BankCount = n

	banks := make([]models.BankData, n)
	for i := range banks {
		var b models.BankData
		if i < len(state.Banks) {
			b = state.Banks[i]
		}
		banks[i] = models.NormalizeBankData(b, meta.Buttons)
	}
	state.Banks = banks

	buttons := make([][]models.ButtonMap, n)
	for i := range buttons {
		row := models.DefaultButtonRow(meta.Buttons)
		if i < len(state.Buttons) {
			for j := 0; j < len(row) && j < len(state.Buttons[i]); j++ {
				row[j] = models.NormalizeButtonMap(state.Buttons[i][j], meta.MaxActions).ForWrite()
			}
		}
		buttons[i] = row
	}
	state.Buttons = buttons

	state.LED.Brightness = models.NormalizeBrightness(state.LED.Brightness)

	if state.Live.Bank < 0 || state.Live.Bank >= n {
		slog.Warn("config: active bank out of range, resetting", "bank", state.Live.Bank)
		state.Live.Bank = 0
	}
}

package models

import "fmt"

// DefaultMeta returns the capabilities of a stock 8-switch unit.
func DefaultMeta() Meta {
	return Meta{
		MaxBanks:   DefaultMaxBanks,
		Buttons:    DefaultButtons,
		BankCount:  1,
		MaxActions: DefaultMaxActs,
		LongMs:     DefaultLongMs,
	}
}

// DefaultBankName is the label given to a bank without one ("Bank 1"...).
func DefaultBankName(idx int) string {
	return ClipText(fmt.Sprintf("Bank %d", idx+1), MaxBankName)
}

// DefaultSwitchName is the label given to a switch without one ("SW1"...).
func DefaultSwitchName(idx int) string {
	return ClipText(fmt.Sprintf("SW%d", idx+1), MaxSwitchName)
}

// DefaultAction is the row appended by "add action".
func DefaultAction() Action {
	return Action{Type: ActionCC, Ch: 1, A: 0, B: 127, C: 0}
}

// DefaultButtonMap is an unconfigured button.
func DefaultButtonMap() ButtonMap {
	return ButtonMap{PressMode: PressSingle, ABLed: 1, Short: []Action{}, Long: []Action{}}
}

// DefaultBankData returns default switch labels for a bank.
func DefaultBankData(buttons int) BankData {
	return NormalizeBankData(BankData{}, buttons)
}

// DefaultDeviceState returns a factory-fresh device with bankCount banks.
func DefaultDeviceState(meta Meta, bankCount int) DeviceState {
	meta = NormalizeMeta(meta)
	bankCount = ClampInt(bankCount, 1, meta.MaxBanks)
	meta.BankCount = bankCount

	st := DeviceState{
		Meta:   meta,
		Layout: NormalizeLayout(Layout{BankCount: bankCount}, meta.MaxBanks),
		LED:    LED{Brightness: MaxBrightness},
	}
	st.Banks = make([]BankData, bankCount)
	st.Buttons = make([][]ButtonMap, bankCount)
	for i := 0; i < bankCount; i++ {
		st.Banks[i] = DefaultBankData(meta.Buttons)
		st.Buttons[i] = DefaultButtonRow(meta.Buttons)
	}
	return st
}

// DefaultButtonRow returns one bank's worth of unconfigured buttons.
func DefaultButtonRow(buttons int) []ButtonMap {
	row := make([]ButtonMap, buttons)
	for j := range row {
		row[j] = DefaultButtonMap()
	}
	return row
}

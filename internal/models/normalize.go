package models

import (
	"math"
	"strconv"
	"strings"
)

// ClampInt constrains v to the closed range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat truncates v toward zero and constrains it to [lo, hi].
// Non-finite input maps to lo.
func ClampFloat(v float64, lo, hi int) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lo
	}
	v = math.Trunc(v)
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}

// ParseClamp parses free-form numeric text (as typed into a number field)
// and clamps it. Empty or unparsable text maps to lo.
func ParseClamp(s string, lo, hi int) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return lo
	}
	return ClampFloat(f, lo, hi)
}

// ClipText cuts s to at most n runes.
func ClipText(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Wrap maps n into [0, max) with negative values wrapping from the end.
// A max below 1 is treated as 1.
func Wrap(n, max int) int {
	if max < 1 {
		max = 1
	}
	r := n % max
	if r < 0 {
		r += max
	}
	return r
}

// NormalizeMeta fills unset capability fields with firmware defaults.
func NormalizeMeta(m Meta) Meta {
	def := DefaultMeta()
	if m.MaxBanks <= 0 {
		m.MaxBanks = def.MaxBanks
	}
	if m.Buttons <= 0 {
		m.Buttons = def.Buttons
	}
	if m.MaxActions <= 0 {
		m.MaxActions = def.MaxActions
	}
	if m.LongMs <= 0 {
		m.LongMs = def.LongMs
	}
	m.BankCount = ClampInt(m.BankCount, 1, m.MaxBanks)
	return m
}

// NormalizeLayout pads or truncates the bank list to BankCount, clips names,
// defaults empty names and re-derives indices from position.
func NormalizeLayout(l Layout, maxBanks int) Layout {
	if maxBanks <= 0 {
		maxBanks = DefaultMaxBanks
	}
	bc := ClampInt(l.BankCount, 1, maxBanks)
	out := Layout{BankCount: bc, Banks: make([]Bank, bc)}
	for i := 0; i < bc; i++ {
		name := ""
		if i < len(l.Banks) {
			name = l.Banks[i].Name
		}
		if name == "" {
			name = DefaultBankName(i)
		}
		out.Banks[i] = Bank{Index: i, Name: ClipText(name, MaxBankName)}
	}
	return out
}

// Reindex rewrites every bank's Index to its position and syncs BankCount.
func (l *Layout) Reindex() {
	for i := range l.Banks {
		l.Banks[i].Index = i
	}
	l.BankCount = len(l.Banks)
}

// NormalizeBankData sizes the switch-name list to buttons entries, clipping
// each name and replacing empty ones with the default label.
func NormalizeBankData(b BankData, buttons int) BankData {
	if buttons <= 0 {
		buttons = DefaultButtons
	}
	out := BankData{SwitchNames: make([]string, buttons)}
	for i := 0; i < buttons; i++ {
		v := ""
		if i < len(b.SwitchNames) {
			v = ClipText(b.SwitchNames[i], MaxSwitchName)
		}
		if v == "" {
			v = DefaultSwitchName(i)
		}
		out.SwitchNames[i] = v
	}
	return out
}

// NormalizeAction clamps every field of a to the firmware's ranges.
func NormalizeAction(a Action) Action {
	if a.Type != ActionPC {
		a.Type = ActionCC
	}
	a.Ch = ClampInt(a.Ch, MinChannel, MaxChannel)
	a.A = ClampInt(a.A, 0, MaxData7)
	a.B = ClampInt(a.B, 0, MaxData7)
	if a.Type != ActionCC {
		a.B = 0
	}
	a.C = 0
	return a
}

// NormalizeButtonMap clamps the press mode and LED selection, caps both
// action lists at maxActions and normalizes every action.
func NormalizeButtonMap(m ButtonMap, maxActions int) ButtonMap {
	if maxActions <= 0 {
		maxActions = DefaultMaxActs
	}
	out := ButtonMap{
		PressMode:  ClampInt(m.PressMode, PressSingle, PressGroup),
		CCBehavior: 0,
		ABLed:      ClampInt(m.ABLed, 0, 1),
		Short:      normalizeActions(m.Short, maxActions),
		Long:       normalizeActions(m.Long, maxActions),
	}
	return out
}

func normalizeActions(list []Action, max int) []Action {
	if len(list) > max {
		list = list[:max]
	}
	out := make([]Action, len(list))
	for i, a := range list {
		out[i] = NormalizeAction(a)
	}
	return out
}

// NormalizeBrightness clamps an LED brightness percentage.
func NormalizeBrightness(v int) int {
	return ClampInt(v, 0, MaxBrightness)
}

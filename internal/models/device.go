// Package models defines the data structures shared by the footswitch device
// and the editor. JSON field names match the firmware's web API exactly.
package models

// Action types understood by the firmware.
const (
	ActionCC = "cc"
	ActionPC = "pc"
)

// Press modes.
const (
	PressSingle    = 0 // one command list on press
	PressShortLong = 1 // short list on release, long list after LongMs hold
	PressToggle    = 2 // alternate between list a (short) and b (long)
	PressGroup     = 3 // grouped commands, short list only
)

// Meta describes the fixed capabilities of the device.
type Meta struct {
	MaxBanks   int `json:"maxBanks"`
	Buttons    int `json:"buttons"`
	BankCount  int `json:"bankCount"`
	MaxActions int `json:"maxActions"`
	LongMs     int `json:"longMs"`
}

// Action is a single MIDI message fired by a button.
// For "cc": A is the controller number and B the value.
// For "pc": A is the program number and B is always 0.
type Action struct {
	Type string `json:"type"`
	Ch   int    `json:"ch"` // 1-16
	A    int    `json:"a"`  // 0-127
	B    int    `json:"b"`  // 0-127
	C    int    `json:"c"`  // reserved, always 0
}

// ButtonMap is the complete action mapping of one button in one bank.
type ButtonMap struct {
	PressMode  int      `json:"pressMode"`
	CCBehavior int      `json:"ccBehavior"`
	ABLed      int      `json:"abLed"` // which LED lights in toggle mode, 0=a 1=b
	Short      []Action `json:"short"`
	Long       []Action `json:"long"`
}

// DeepCopy returns a copy that shares no slices with m.
func (m ButtonMap) DeepCopy() ButtonMap {
	cp := m
	cp.Short = append([]Action(nil), m.Short...)
	cp.Long = append([]Action(nil), m.Long...)
	if cp.Short == nil {
		cp.Short = []Action{}
	}
	if cp.Long == nil {
		cp.Long = []Action{}
	}
	return cp
}

// ForWrite returns the payload the device expects for m: the long list is
// dropped in modes without one and abLed only matters in toggle mode.
func (m ButtonMap) ForWrite() ButtonMap {
	out := m.DeepCopy()
	out.CCBehavior = 0
	if out.PressMode == PressSingle || out.PressMode == PressGroup {
		out.Long = []Action{}
	}
	if out.PressMode != PressToggle {
		out.ABLed = 1
	}
	return out
}

// Bank is one entry of the bank layout.
type Bank struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Layout is the ordered list of banks.
type Layout struct {
	BankCount int    `json:"bankCount"`
	Banks     []Bank `json:"banks"`
}

// DeepCopy returns a copy that shares no slices with l.
func (l Layout) DeepCopy() Layout {
	cp := l
	cp.Banks = append([]Bank(nil), l.Banks...)
	if cp.Banks == nil {
		cp.Banks = []Bank{}
	}
	return cp
}

// BankData holds the per-bank switch labels.
type BankData struct {
	SwitchNames []string `json:"switchNames"`
}

// DeepCopy returns a copy that shares no slices with b.
func (b BankData) DeepCopy() BankData {
	cp := BankData{SwitchNames: append([]string(nil), b.SwitchNames...)}
	if cp.SwitchNames == nil {
		cp.SwitchNames = []string{}
	}
	return cp
}

// LED is the global LED brightness, in percent.
type LED struct {
	Brightness int `json:"brightness"`
}

// LiveState is what the hardware reports as currently active.
type LiveState struct {
	Bank int `json:"bank"`
}

// DeviceState is the complete persisted state of a device.
type DeviceState struct {
	Meta    Meta          `json:"meta"`
	Layout  Layout        `json:"layout"`
	Banks   []BankData    `json:"banks"`
	Buttons [][]ButtonMap `json:"buttons"` // [bank][button]
	LED     LED           `json:"led"`
	Live    LiveState     `json:"live"`
}

// DeepCopy returns a fully independent copy of the device state.
func (s DeviceState) DeepCopy() DeviceState {
	cp := s
	cp.Layout = s.Layout.DeepCopy()
	cp.Banks = make([]BankData, len(s.Banks))
	for i := range s.Banks {
		cp.Banks[i] = s.Banks[i].DeepCopy()
	}
	cp.Buttons = make([][]ButtonMap, len(s.Buttons))
	for i := range s.Buttons {
		row := make([]ButtonMap, len(s.Buttons[i]))
		for j := range s.Buttons[i] {
			row[j] = s.Buttons[i][j].DeepCopy()
		}
		cp.Buttons[i] = row
	}
	return cp
}

// Cursor is the editor's current (bank, button) position.
type Cursor struct {
	Bank   int `json:"bank"`
	Button int `json:"btn"`
}

// Status is an advisory, user-visible message from the editor.
type Status struct {
	Text string `json:"text"`
	OK   bool   `json:"ok"`
}

// Which list a press fired.
const (
	ListShort = "short"
	ListLong  = "long"
)

// PressResult describes the MIDI a single press of a switch sent.
type PressResult struct {
	Bank    int      `json:"bank"`
	Button  int      `json:"btn"`
	List    string   `json:"list"`
	Actions []Action `json:"actions"`
	MIDI    []string `json:"midi"` // wire bytes per action, hex
}

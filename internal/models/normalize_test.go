package models_test

import (
	"math"
	"strings"
	"testing"

	"github.com/micro-nova/footswitch-go/internal/models"
)

func TestClampInt(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{1, 1, 16, 1},
		{17, 1, 16, 16},
	}
	for _, tc := range tests {
		if got := models.ClampInt(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestClampFloat(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want int
	}{
		{"in range", 42, 42},
		{"truncates", 42.9, 42},
		{"negative truncates toward zero", -0.5, 0},
		{"NaN", math.NaN(), 0},
		{"Inf", math.Inf(1), 0},
		{"above", 1000, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := models.ClampFloat(tc.v, 0, 100); got != tc.want {
				t.Errorf("ClampFloat(%v) = %d, want %d", tc.v, got, tc.want)
			}
		})
	}
}

func TestParseClamp(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{" 7 ", 7},
		{"7.8", 7},
		{"99", 16},
		{"-3", 1},
	}
	for _, tc := range tests {
		if got := models.ParseClamp(tc.in, 1, 16); got != tc.want {
			t.Errorf("ParseClamp(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestClipText(t *testing.T) {
	if got := models.ClipText("Crunchy Lead", models.MaxBankName); got != "Crunchy Le" {
		t.Errorf("ClipText = %q, want %q", got, "Crunchy Le")
	}
	if got := models.ClipText("短い名前です", 3); got != "短い名" {
		t.Errorf("ClipText multibyte = %q, want %q", got, "短い名")
	}
	if got := models.ClipText("abc", 0); got != "" {
		t.Errorf("ClipText(n=0) = %q, want empty", got)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		n, max, want int
	}{
		{0, 4, 0},
		{4, 4, 0},
		{-1, 4, 3},
		{-5, 4, 3},
		{9, 0, 0},
		{3, 1, 0},
	}
	for _, tc := range tests {
		if got := models.Wrap(tc.n, tc.max); got != tc.want {
			t.Errorf("Wrap(%d, %d) = %d, want %d", tc.n, tc.max, got, tc.want)
		}
	}
}

func TestNormalizeLayout_PadsAndTruncates(t *testing.T) {
	l := models.NormalizeLayout(models.Layout{
		BankCount: 3,
		Banks: []models.Bank{
			{Index: 7, Name: "Clean"},
			{Index: 9, Name: ""},
		},
	}, 100)

	if l.BankCount != 3 || len(l.Banks) != 3 {
		t.Fatalf("bankCount = %d, banks = %d, want 3/3", l.BankCount, len(l.Banks))
	}
	want := []string{"Clean", "Bank 2", "Bank 3"}
	for i, b := range l.Banks {
		if b.Index != i {
			t.Errorf("banks[%d].Index = %d, want %d", i, b.Index, i)
		}
		if b.Name != want[i] {
			t.Errorf("banks[%d].Name = %q, want %q", i, b.Name, want[i])
		}
	}

	l = models.NormalizeLayout(models.Layout{BankCount: 1, Banks: []models.Bank{{Name: "A"}, {Name: "B"}}}, 100)
	if len(l.Banks) != 1 {
		t.Errorf("extra banks not truncated: %d", len(l.Banks))
	}

	l = models.NormalizeLayout(models.Layout{BankCount: 0}, 100)
	if l.BankCount != 1 {
		t.Errorf("zero bankCount normalized to %d, want 1", l.BankCount)
	}
}

func TestNormalizeBankData(t *testing.T) {
	b := models.NormalizeBankData(models.BankData{SwitchNames: []string{"Boost!!", ""}}, 4)
	want := []string{"Boost", "SW2", "SW3", "SW4"}
	if strings.Join(b.SwitchNames, ",") != strings.Join(want, ",") {
		t.Errorf("switchNames = %v, want %v", b.SwitchNames, want)
	}
}

func TestNormalizeAction(t *testing.T) {
	a := models.NormalizeAction(models.Action{Type: "pc", Ch: 0, A: 300, B: 64, C: 9})
	if a.Ch != 1 || a.A != 127 || a.B != 0 || a.C != 0 {
		t.Errorf("pc action = %+v, want ch=1 a=127 b=0 c=0", a)
	}
	a = models.NormalizeAction(models.Action{Type: "bogus", Ch: 20, A: -1, B: 200})
	if a.Type != models.ActionCC || a.Ch != 16 || a.A != 0 || a.B != 127 {
		t.Errorf("cc action = %+v", a)
	}
}

func TestNormalizeButtonMap_CapsActions(t *testing.T) {
	short := make([]models.Action, 25)
	m := models.NormalizeButtonMap(models.ButtonMap{PressMode: 9, ABLed: 5, Short: short}, 20)
	if m.PressMode != models.PressGroup {
		t.Errorf("PressMode = %d, want %d", m.PressMode, models.PressGroup)
	}
	if m.ABLed != 1 {
		t.Errorf("ABLed = %d, want 1", m.ABLed)
	}
	if len(m.Short) != 20 {
		t.Errorf("len(Short) = %d, want 20", len(m.Short))
	}
	if m.Long == nil {
		t.Error("Long should be an empty slice, not nil")
	}
}

func TestButtonMapForWrite(t *testing.T) {
	m := models.ButtonMap{
		PressMode: models.PressSingle,
		ABLed:     0,
		Short:     []models.Action{models.DefaultAction()},
		Long:      []models.Action{models.DefaultAction()},
	}
	w := m.ForWrite()
	if len(w.Long) != 0 {
		t.Errorf("single mode: long = %d entries, want 0", len(w.Long))
	}
	if w.ABLed != 1 {
		t.Errorf("single mode: abLed = %d, want 1", w.ABLed)
	}
	if len(m.Long) != 1 {
		t.Error("ForWrite mutated the receiver")
	}

	m.PressMode = models.PressToggle
	w = m.ForWrite()
	if len(w.Long) != 1 || w.ABLed != 0 {
		t.Errorf("toggle mode: long=%d abLed=%d, want 1/0", len(w.Long), w.ABLed)
	}
}

func TestDefaultDeviceState(t *testing.T) {
	st := models.DefaultDeviceState(models.DefaultMeta(), 3)
	if st.Layout.BankCount != 3 || len(st.Banks) != 3 || len(st.Buttons) != 3 {
		t.Fatalf("bank sizing wrong: layout=%d banks=%d buttons=%d", st.Layout.BankCount, len(st.Banks), len(st.Buttons))
	}
	if len(st.Buttons[0]) != models.DefaultButtons {
		t.Errorf("buttons per bank = %d, want %d", len(st.Buttons[0]), models.DefaultButtons)
	}
	if st.LED.Brightness != 100 {
		t.Errorf("LED = %d, want 100", st.LED.Brightness)
	}
	if st.Meta.BankCount != 3 {
		t.Errorf("Meta.BankCount = %d, want 3", st.Meta.BankCount)
	}
}

func TestDeviceStateDeepCopy(t *testing.T) {
	st := models.DefaultDeviceState(models.DefaultMeta(), 2)
	cp := st.DeepCopy()
	cp.Banks[0].SwitchNames[0] = "X"
	cp.Layout.Banks[0].Name = "Y"
	cp.Buttons[1][2].Short = append(cp.Buttons[1][2].Short, models.DefaultAction())
	if st.Banks[0].SwitchNames[0] == "X" || st.Layout.Banks[0].Name == "Y" || len(st.Buttons[1][2].Short) != 0 {
		t.Error("DeepCopy shares memory with the original")
	}
}

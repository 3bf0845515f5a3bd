// Package display mirrors the active bank to the footswitch's character
// display over UART.
//
// Each refresh is one line:
//
//	@U,<bank>,<bankname>,<sw1>,...,<sw8>\n
//
// and the display answers "@A,SAVED" once it has stored the page.
package display

import (
	"strconv"
	"strings"

	"github.com/micro-nova/footswitch-go/internal/models"
)

const (
	framePrefix = "@U"
	ackToken    = "@A,SAVED"
	placeholder = "NA"
)

var sanitizer = strings.NewReplacer(",", " ", "\n", " ", "\r", " ")

// sanitize keeps a name from breaking the comma separated frame.
func sanitize(s string) string {
	return sanitizer.Replace(s)
}

// Frame builds the refresh line for the live bank of st. A state without
// banks yields the placeholder page the display shows at boot.
func Frame(st models.DeviceState) string {
	buttons := st.Meta.Buttons
	if buttons <= 0 {
		buttons = models.DefaultButtons
	}
	n := st.Layout.BankCount
	if n < 1 || len(st.Layout.Banks) < n || len(st.Banks) < n {
		return placeholderFrame(buttons)
	}

	bank := st.Live.Bank
	if bank < 0 || bank >= n {
		bank = 0
	}

	var b strings.Builder
	b.WriteString(framePrefix)
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(bank))
	b.WriteByte(',')
	b.WriteString(sanitize(models.ClipText(st.Layout.Banks[bank].Name, models.MaxBankName)))
	names := st.Banks[bank].SwitchNames
	for k := 0; k < buttons; k++ {
		name := models.DefaultSwitchName(k)
		if k < len(names) {
			name = models.ClipText(names[k], models.MaxSwitchName)
		}
		b.WriteByte(',')
		b.WriteString(sanitize(name))
	}
	b.WriteByte('\n')
	return b.String()
}

func placeholderFrame(buttons int) string {
	parts := make([]string, 0, buttons+3)
	parts = append(parts, framePrefix, "0", placeholder)
	for k := 0; k < buttons; k++ {
		parts = append(parts, placeholder)
	}
	return strings.Join(parts, ",") + "\n"
}

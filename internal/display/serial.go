package display

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud matches the display's UART configuration.
const DefaultBaud = 115200

// Port is the part of a serial port the mirror needs.
// Read must return (0, nil) once the read timeout expires.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// OpenSerial opens the named serial device at the given baud rate, 8N1.
func OpenSerial(name string, baud int) (Port, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("display: open %s: %w", name, err)
	}
	slog.Info("display: port opened", "device", name, "baud", baud)
	return p, nil
}

package display

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/micro-nova/footswitch-go/internal/models"
)

// Coalescing and ack timing of the display task.
const (
	DefaultSettle     = 80 * time.Millisecond
	DefaultRecheck    = 30 * time.Millisecond
	DefaultAckTimeout = 600 * time.Millisecond
	ackPoll           = 20 * time.Millisecond
	ackBufSize        = 256
)

// Mirror pushes the live bank page to the display whenever device state
// changes. Bursts of changes are collapsed into one frame.
type Mirror struct {
	port       Port
	settle     time.Duration
	recheck    time.Duration
	ackTimeout time.Duration

	sent   atomic.Int64
	acked  atomic.Int64
	failed atomic.Int64
	last   atomic.Value // string
}

// Stats counts frames written, acknowledged and lost to write errors.
type Stats struct {
	Sent, Acked, Failed int64
	LastFrame           string
}

// NewMirror returns a mirror writing to port with the firmware's timings.
func NewMirror(port Port) *Mirror {
	return &Mirror{
		port:       port,
		settle:     DefaultSettle,
		recheck:    DefaultRecheck,
		ackTimeout: DefaultAckTimeout,
	}
}

// SetTimings overrides the coalescing windows and ack timeout. Zero
// values keep the current setting.
func (m *Mirror) SetTimings(settle, recheck, ackTimeout time.Duration) {
	if settle > 0 {
		m.settle = settle
	}
	if recheck > 0 {
		m.recheck = recheck
	}
	if ackTimeout > 0 {
		m.ackTimeout = ackTimeout
	}
}

// Stats returns a snapshot of the mirror's counters.
func (m *Mirror) Stats() Stats {
	last, _ := m.last.Load().(string)
	return Stats{Sent: m.sent.Load(), Acked: m.acked.Load(), Failed: m.failed.Load(), LastFrame: last}
}

// Run mirrors every state received on updates until ctx is done or updates
// is closed. The latest state of a burst wins.
func (m *Mirror) Run(ctx context.Context, updates <-chan models.DeviceState) error {
	for {
		var latest models.DeviceState
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			latest = st
		}

		latest, open := m.coalesce(ctx, updates, latest)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.Show(latest)
		if !open {
			return nil
		}
	}
}

// coalesce waits out the settle window, then keeps waiting in recheck steps
// while updates keep arriving. It reports false once updates is closed.
func (m *Mirror) coalesce(ctx context.Context, updates <-chan models.DeviceState, latest models.DeviceState) (models.DeviceState, bool) {
	wait := m.settle
	for {
		n, open := collect(ctx, updates, wait, &latest)
		if !open || n == 0 || ctx.Err() != nil {
			return latest, open
		}
		wait = m.recheck
	}
}

func collect(ctx context.Context, updates <-chan models.DeviceState, d time.Duration, latest *models.DeviceState) (int, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, true
		case <-timer.C:
			return n, true
		case st, ok := <-updates:
			if !ok {
				return n, false
			}
			*latest = st
			n++
		}
	}
}

// Show writes the frame for st and waits for the display's ack. Ack loss
// is logged and otherwise ignored.
func (m *Mirror) Show(st models.DeviceState) bool {
	frame := Frame(st)
	// stale bytes would hide or fake an ack
	if err := m.port.ResetInputBuffer(); err != nil {
		slog.Debug("display: reset input failed", "err", err)
	}
	if _, err := m.port.Write([]byte(frame)); err != nil {
		m.failed.Add(1)
		slog.Error("display: write error", "err", err)
		return false
	}
	m.sent.Add(1)
	m.last.Store(frame)
	slog.Debug("display: frame sent", "frame", strings.TrimSuffix(frame, "\n"))

	if !m.waitAck() {
		slog.Warn("display: no ack", "timeout", m.ackTimeout)
		return false
	}
	m.acked.Add(1)
	return true
}

func (m *Mirror) waitAck() bool {
	if err := m.port.SetReadTimeout(ackPoll); err != nil {
		slog.Debug("display: set read timeout failed", "err", err)
	}
	buf := make([]byte, 128)
	acc := make([]byte, 0, ackBufSize)
	deadline := time.Now().Add(m.ackTimeout)
	for time.Now().Before(deadline) {
		n, err := m.port.Read(buf)
		if err != nil {
			slog.Debug("display: read error", "err", err)
			return false
		}
		if n == 0 {
			continue
		}
		if len(acc)+n >= ackBufSize {
			acc = acc[:0]
		}
		acc = append(acc, buf[:n]...)
		if strings.Contains(string(acc), ackToken) {
			return true
		}
	}
	return false
}

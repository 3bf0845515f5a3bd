package autosave

import (
	"context"
	"sync"
	"time"
)

// DefaultQuiescence is how long continuous input must pause before a
// debounced resource is written.
const DefaultQuiescence = 250 * time.Millisecond

// Debounced wraps a Saver whose edits arrive as a stream (a slider drag).
// Every edit is recorded immediately; convergence is requested only once
// input has been quiet for the window.
type Debounced struct {
	*Saver
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebounced wraps s. A window <= 0 uses DefaultQuiescence.
func NewDebounced(s *Saver, window time.Duration) *Debounced {
	if window <= 0 {
		window = DefaultQuiescence
	}
	return &Debounced{Saver: s, window: window}
}

// Window returns the quiescence window.
func (d *Debounced) Window() time.Duration { return d.window }

// Edit records an edit and re-arms the quiescence timer, canceling any
// timer armed by an earlier edit.
func (d *Debounced) Edit() {
	d.MarkDirty()
	if d.gate.Held() || !d.Dirty() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// ForceNow cancels any armed timer and requests convergence right away.
func (d *Debounced) ForceNow() {
	d.Stop()
	d.RequestConvergence()
}

// Flush cancels the timer and saves immediately, waiting for the result.
func (d *Debounced) Flush(ctx context.Context) error {
	d.Stop()
	return d.SaveImmediate(ctx)
}

// Stop cancels an armed timer without requesting convergence.
func (d *Debounced) Stop() {
	d.mu.Lock()
	d.stopLocked()
	d.mu.Unlock()
}

// Armed reports whether a quiescence timer is pending.
func (d *Debounced) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// stopLocked invalidates the current timer. Bumping gen makes a callback
// that already started but lost the race for d.mu a no-op.
func (d *Debounced) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debounced) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.RequestConvergence()
}

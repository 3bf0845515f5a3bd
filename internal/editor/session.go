// Package editor is the configuration editor for a footswitch: one Session
// per connected device, holding the locally edited copy of every resource and
// keeping the device in step with it.
//
// Four resources autosave independently: the button mapping under the
// cursor, the bank layout, the current bank's switch names and the LED
// brightness. Anything that changes the editing context (navigation, bank
// add/delete, reload) first runs the flush barrier, so leaving a bank never
// abandons an edit.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/micro-nova/footswitch-go/internal/autosave"
	"github.com/micro-nova/footswitch-go/internal/models"
)

// Resource names, as reported in FlushError and View.Pending.
const (
	ResButton = "button"
	ResLayout = "layout"
	ResBank   = "bank"
	ResLED    = "led"
)

// Options configures a Session.
type Options struct {
	// Status receives every user-visible status line. It is called
	// synchronously, sometimes with session locks held, so it must not call
	// back into the Session.
	Status func(models.Status)
	// Debounce is the LED brightness quiescence window.
	Debounce time.Duration
	// MaxRounds caps superseded writes per convergence loop.
	MaxRounds int
	// Now is the clock used for navigation timestamps.
	Now func() time.Time
}

// Session is one editor attached to one device.
//
// Lock order: navMu, then mu, then any saver's own lock. Remote calls are
// never made while mu is held.
type Session struct {
	remote   Remote
	onStatus func(models.Status)
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc

	navMu sync.Mutex // serializes context changes
	gate  autosave.Gate

	button  *autosave.Saver
	layout  *autosave.Saver
	bank    *autosave.Saver
	led     *autosave.Debounced
	barrier *autosave.Barrier

	mu        sync.Mutex
	meta      models.Meta
	local     locals
	cursor    models.Cursor
	lastNavAt time.Time
	ready     bool // Init succeeded
	stale     bool // locals may not match the device until the next full load

	statusMu sync.Mutex
	status   models.Status
}

// locals are the user-editable copies of every resource.
type locals struct {
	layout models.Layout
	bank   models.BankData
	button models.ButtonMap
	led    models.LED
}

// New returns a session over remote. Call Init before editing.
func New(remote Remote, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		remote:   remote,
		onStatus: opts.Status,
		now:      opts.Now,
		ctx:      ctx,
		cancel:   cancel,
		meta:     models.DefaultMeta(),
	}
	if s.now == nil {
		s.now = time.Now
	}

	saverOpts := autosave.Options{
		Gate:      &s.gate,
		Status:    s.setStatus,
		MaxRounds: opts.MaxRounds,
		Context:   ctx,
	}
	s.button = autosave.New(ResButton, s.writeButton, saverOpts)
	s.layout = autosave.New(ResLayout, s.writeLayout, saverOpts)
	s.bank = autosave.New(ResBank, s.writeBank, saverOpts)
	ledOpts := saverOpts
	ledOpts.QuietEdits = true
	s.led = autosave.NewDebounced(autosave.New(ResLED, s.writeLED, ledOpts), opts.Debounce)
	s.barrier = autosave.NewBarrier(s.commit, s.button, s.layout, s.bank, s.led)
	return s
}

// The write callbacks read local state fresh on every round.

func (s *Session) writeButton(ctx context.Context) error {
	s.mu.Lock()
	cur := s.cursor
	m := s.local.button.ForWrite()
	s.mu.Unlock()
	return s.remote.SetButton(ctx, cur.Bank, cur.Button, m)
}

func (s *Session) writeLayout(ctx context.Context) error {
	s.mu.Lock()
	l := layoutPayload(s.local.layout)
	s.mu.Unlock()
	return s.remote.SetLayout(ctx, l)
}

func (s *Session) writeBank(ctx context.Context) error {
	s.mu.Lock()
	bank := s.cursor.Bank
	names := append([]string(nil), s.local.bank.SwitchNames...)
	s.mu.Unlock()
	for i := range names {
		names[i] = models.ClipText(names[i], models.MaxSwitchName)
	}
	return s.remote.SetBank(ctx, bank, models.BankData{SwitchNames: names})
}

func (s *Session) writeLED(ctx context.Context) error {
	s.mu.Lock()
	l := models.LED{Brightness: models.NormalizeBrightness(s.local.led.Brightness)}
	s.mu.Unlock()
	return s.remote.SetLED(ctx, l)
}

func layoutPayload(l models.Layout) models.Layout {
	out := l.DeepCopy()
	for i := range out.Banks {
		out.Banks[i].Name = models.ClipText(out.Banks[i].Name, models.MaxBankName)
	}
	out.Reindex()
	return out
}

// commit finishes any open text edit: savers that were only marked dirty
// start converging now.
func (s *Session) commit() {
	s.layout.RequestConvergence()
	s.bank.RequestConvergence()
	s.button.RequestConvergence()
}

func (s *Session) setStatus(text string, ok bool) {
	st := models.Status{Text: text, OK: ok}
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()
	if s.onStatus != nil {
		s.onStatus(st)
	}
}

// failStatus reports err under prefix and returns it.
func (s *Session) failStatus(prefix string, err error) error {
	s.setStatus(prefix+err.Error(), false)
	return err
}

// Status returns the most recent status line.
func (s *Session) Status() models.Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

// settle flushes every resource and then holds the load gate. It repeats
// when an edit slipped in between the flush and the hold, so on success
// every resource is clean and no edit can land until release is called.
func (s *Session) settle(ctx context.Context) (release func(), err error) {
	for {
		if err := s.barrier.FlushAll(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		release = s.gate.Hold()
		busy := s.busyLocked()
		s.mu.Unlock()
		if !busy {
			return release, nil
		}
		release()
		slog.Debug("editor: edit during flush, flushing again")
	}
}

func (s *Session) busyLocked() bool {
	for _, sv := range s.savers() {
		if snap := sv.Snapshot(); snap.Dirty || snap.Saving {
			return true
		}
	}
	return false
}

func (s *Session) savers() []*autosave.Saver {
	return []*autosave.Saver{s.button, s.layout, s.bank, s.led.Saver}
}

// snapshot is what a load fetched; nil pointers were not requested.
type snapshot struct {
	cursor models.Cursor
	layout *models.Layout
	led    *models.LED
	bank   models.BankData
	button models.ButtonMap
}

// fetch reads the data for cursor cur from the device. With full it also
// re-reads the layout and LED, and cur.Bank is wrapped into the new layout.
func (s *Session) fetch(ctx context.Context, cur models.Cursor, full bool) (snapshot, error) {
	s.mu.Lock()
	meta := s.meta
	bankCount := s.local.layout.BankCount
	s.mu.Unlock()

	var snap snapshot
	if full {
		l, err := s.remote.Layout(ctx)
		if err != nil {
			return snapshot{}, fmt.Errorf("load layout: %w", err)
		}
		l = models.NormalizeLayout(l, meta.MaxBanks)
		snap.layout = &l
		bankCount = l.BankCount

		led, err := s.remote.LED(ctx)
		if err != nil {
			return snapshot{}, fmt.Errorf("load led: %w", err)
		}
		led.Brightness = models.NormalizeBrightness(led.Brightness)
		snap.led = &led
	}
	cur.Bank = models.Wrap(cur.Bank, bankCount)
	cur.Button = models.Wrap(cur.Button, meta.Buttons)
	snap.cursor = cur

	b, err := s.remote.Bank(ctx, cur.Bank)
	if err != nil {
		return snapshot{}, fmt.Errorf("load bank %d: %w", cur.Bank, err)
	}
	snap.bank = models.NormalizeBankData(b, meta.Buttons)

	m, err := s.remote.Button(ctx, cur.Bank, cur.Button)
	if err != nil {
		return snapshot{}, fmt.Errorf("load button %d/%d: %w", cur.Bank, cur.Button, err)
	}
	snap.button = models.NormalizeButtonMap(m, meta.MaxActions)
	return snap, nil
}

// apply installs a fetched snapshot: the cursor and the loaded locals move
// together, and every saver starts clean. Callers hold the gate.
func (s *Session) apply(snap snapshot) {
	s.mu.Lock()
	s.cursor = snap.cursor
	if snap.layout != nil {
		s.local.layout = *snap.layout
	}
	if snap.led != nil {
		s.local.led = *snap.led
	}
	s.local.bank = snap.bank
	s.local.button = snap.button
	if snap.layout != nil {
		s.stale = false
	}
	s.mu.Unlock()

	s.led.Stop()
	for _, sv := range s.savers() {
		sv.Reset()
	}
}

// View is a read-only copy of the session.
type View struct {
	Meta    models.Meta
	Layout  models.Layout
	Bank    models.BankData
	Button  models.ButtonMap
	LED     models.LED
	Cursor  models.Cursor
	Status  models.Status
	Pending []string // resources with unsaved edits
	Loading bool
}

// BankName returns the name of the bank under the cursor.
func (v View) BankName() string {
	if v.Cursor.Bank >= 0 && v.Cursor.Bank < len(v.Layout.Banks) {
		return v.Layout.Banks[v.Cursor.Bank].Name
	}
	return ""
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	v := View{
		Meta:    s.meta,
		Layout:  s.local.layout.DeepCopy(),
		Bank:    s.local.bank.DeepCopy(),
		Button:  s.local.button.DeepCopy(),
		LED:     s.local.led,
		Cursor:  s.cursor,
		Loading: s.gate.Held(),
	}
	s.mu.Unlock()
	for _, sv := range s.savers() {
		if sv.Dirty() {
			v.Pending = append(v.Pending, sv.Name())
		}
	}
	v.Status = s.Status()
	return v
}

// Cursor returns the current bank and button.
func (s *Session) Cursor() models.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// LastNavAt is when the session last changed context on its own.
func (s *Session) LastNavAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastNavAt
}

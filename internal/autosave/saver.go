// Package autosave keeps remote resources converged with local edits.
//
// A Saver owns the dirty flag, a monotonic edit version and at most one
// running convergence loop for a single resource. Edits bump the version;
// the loop writes the current local value, and keeps writing until a write
// completes without the version having moved underneath it. Edits that land
// while a write is in flight are therefore coalesced into one extra round
// trip instead of one write per edit.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultMaxRounds bounds how many consecutive superseded writes one loop
// performs before giving up with ErrUnsettled.
const DefaultMaxRounds = 64

// ErrUnsettled is reported when a convergence loop hits its round limit
// because edits kept arriving faster than writes completed. The resource
// stays dirty; the next edit or flush starts a fresh loop.
var ErrUnsettled = errors.New("edits did not settle")

// ErrGateHeld is returned by SaveImmediate and Flush while a load holds the
// gate. Nothing is written and the resource keeps its dirty flag.
var ErrGateHeld = errors.New("load in progress")

// WriteFunc persists the current local value of a resource. It must read the
// local value when called, never a value captured earlier.
type WriteFunc func(ctx context.Context) error

// StatusFunc receives advisory, user-visible status text.
type StatusFunc func(text string, ok bool)

// Options configures a Saver.
type Options struct {
	// Gate suppresses dirtying while a bulk load is populating local state.
	Gate *Gate
	// Status receives "editing…", "saved" and failure messages.
	Status StatusFunc
	// QuietEdits skips the "editing…" report for resources edited as a
	// stream, such as a slider.
	QuietEdits bool
	// MaxRounds caps superseded writes per loop. Zero means DefaultMaxRounds,
	// a negative value disables the cap.
	MaxRounds int
	// Context is passed to every write. Defaults to context.Background().
	Context context.Context
}

// Gate is shared by every Saver of an editing session. While held, edits are
// not recorded and no convergence loop is started.
type Gate struct {
	held atomic.Int32
}

// Hold marks a bulk load in progress. The returned func releases it.
func (g *Gate) Hold() (release func()) {
	g.held.Add(1)
	var once sync.Once
	return func() { once.Do(func() { g.held.Add(-1) }) }
}

// Held reports whether a load is in progress. A nil Gate is never held.
func (g *Gate) Held() bool {
	return g != nil && g.held.Load() > 0
}

// flight is the shared future of one convergence loop.
type flight struct {
	done chan struct{}
	err  error
}

func settledFlight() *flight {
	f := &flight{done: make(chan struct{})}
	close(f.done)
	return f
}

func (f *flight) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot is a consistent view of a Saver's flags.
type Snapshot struct {
	Dirty   bool
	Saving  bool
	Version uint64
	Err     error
}

// Saver is the dirty/version save controller for one resource.
// All methods are safe for concurrent use.
type Saver struct {
	name      string
	write     WriteFunc
	gate      *Gate
	status    StatusFunc
	quiet     bool
	maxRounds int
	ctx       context.Context

	mu      sync.Mutex
	dirty   bool
	version uint64
	saving  bool
	pending *flight
	err     error
}

// New returns a clean Saver for the resource called name.
func New(name string, write WriteFunc, opts Options) *Saver {
	s := &Saver{
		name:      name,
		write:     write,
		gate:      opts.Gate,
		status:    opts.Status,
		quiet:     opts.QuietEdits,
		maxRounds: opts.MaxRounds,
		ctx:       opts.Context,
		pending:   settledFlight(),
	}
	if s.maxRounds == 0 {
		s.maxRounds = DefaultMaxRounds
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	return s
}

// Name returns the resource name given to New.
func (s *Saver) Name() string { return s.name }

// MarkDirty records an edit: dirty is set and the version bumped. It does no
// I/O and is ignored while the gate is held.
func (s *Saver) MarkDirty() {
	if s.gate.Held() {
		return
	}
	s.mu.Lock()
	s.dirty = true
	s.version++
	s.mu.Unlock()
	if !s.quiet {
		s.report("editing…", true)
	}
}

// RequestConvergence starts the convergence loop if the resource is dirty
// and no loop is running. A running loop picks up newer versions by itself.
func (s *Saver) RequestConvergence() {
	if s.gate.Held() {
		return
	}
	s.mu.Lock()
	s.startLocked()
	s.mu.Unlock()
}

// SaveImmediate marks the resource dirty, requests convergence and waits for
// the loop that will carry this edit. It returns that loop's failure, if any,
// or ErrGateHeld without touching any state while the gate is held.
func (s *Saver) SaveImmediate(ctx context.Context) error {
	if s.gate.Held() {
		return ErrGateHeld
	}
	s.mu.Lock()
	s.dirty = true
	s.version++
	f := s.startLocked()
	s.mu.Unlock()
	return f.wait(ctx)
}

// Flush is SaveImmediate; it lets a Saver take part in a Barrier.
func (s *Saver) Flush(ctx context.Context) error {
	return s.SaveImmediate(ctx)
}

// Wait joins the running (or most recently finished) loop without starting
// a new one.
func (s *Saver) Wait(ctx context.Context) error {
	s.mu.Lock()
	f := s.pending
	s.mu.Unlock()
	return f.wait(ctx)
}

// Reset clears dirty and the last failure. Callers use it only right after
// loading a fresh value. The version stays monotonic so a loop that is still
// draining cannot mistake an older edit for the current one.
func (s *Saver) Reset() {
	s.mu.Lock()
	s.dirty = false
	s.err = nil
	s.mu.Unlock()
}

// Dirty reports whether local edits are not yet confirmed by the remote.
func (s *Saver) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Saving reports whether a convergence loop is running.
func (s *Saver) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Err returns the failure of the last loop, or nil.
func (s *Saver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns all flags at once.
func (s *Saver) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Dirty: s.dirty, Saving: s.saving, Version: s.version, Err: s.err}
}

// startLocked returns the flight that will carry the current version.
// s.mu must be held.
func (s *Saver) startLocked() *flight {
	if !s.dirty || s.saving {
		return s.pending
	}
	s.saving = true
	f := &flight{done: make(chan struct{})}
	s.pending = f
	go s.converge(f)
	return f
}

func (s *Saver) converge(f *flight) {
	var err error
	for round := 1; ; round++ {
		s.mu.Lock()
		v := s.version
		s.mu.Unlock()

		werr := s.write(s.ctx)

		s.mu.Lock()
		if werr != nil {
			err = werr
			s.err = err
			s.saving = false
			s.mu.Unlock()
			break
		}
		if s.version == v {
			s.dirty = false
			s.err = nil
			s.saving = false
			s.mu.Unlock()
			break
		}
		if s.maxRounds > 0 && round >= s.maxRounds {
			err = fmt.Errorf("%s: %w after %d writes", s.name, ErrUnsettled, round)
			s.err = err
			s.saving = false
			s.mu.Unlock()
			break
		}
		s.mu.Unlock()
		slog.Debug("autosave: edited during write, writing again", "resource", s.name, "version", v, "round", round)
		runtime.Gosched()
	}

	if err != nil {
		slog.Warn("autosave: save failed", "resource", s.name, "err", err)
		s.report("save failed: "+err.Error(), false)
	} else {
		s.report("saved", true)
	}
	f.err = err
	close(f.done)
}

func (s *Saver) report(text string, ok bool) {
	if s.status != nil {
		s.status(text, ok)
	}
}

package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/micro-nova/footswitch-go/internal/models"
)

// Reconciler defaults.
const (
	DefaultPollInterval = 450 * time.Millisecond
	DefaultGrace        = 800 * time.Millisecond
)

// ReconcilerOptions configures a Reconciler. Zero values use the defaults.
type ReconcilerOptions struct {
	Interval time.Duration
	Grace    time.Duration
}

// Reconciler follows bank changes made on the hardware itself. It polls the
// live state and, once the session has been quiet for the grace window,
// flushes pending edits and moves the session to the reported bank.
type Reconciler struct {
	s        *Session
	interval time.Duration
	grace    time.Duration

	mu       sync.Mutex
	liveBank int
	seen     bool
}

// NewReconciler returns a reconciler for s. Call Run to start polling.
func NewReconciler(s *Session, opts ReconcilerOptions) *Reconciler {
	r := &Reconciler{s: s, interval: opts.Interval, grace: opts.Grace}
	if r.interval <= 0 {
		r.interval = DefaultPollInterval
	}
	if r.grace <= 0 {
		r.grace = DefaultGrace
	}
	return r
}

// Run polls until ctx is done. The next poll is scheduled only after the
// previous one has finished, so polls never overlap.
func (r *Reconciler) Run(ctx context.Context) {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if _, err := r.Poll(ctx); err != nil {
			slog.Debug("editor: live poll failed", "err", err)
		}
		t.Reset(r.interval)
	}
}

// LiveBank returns the bank the hardware last reported, and whether any
// poll has succeeded yet.
func (r *Reconciler) LiveBank() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveBank, r.seen
}

// Poll reads the live state once and adopts it when it differs from the
// session's bank outside the grace window. It reports whether the session
// moved.
func (r *Reconciler) Poll(ctx context.Context) (bool, error) {
	st, err := r.s.remote.State(ctx)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	r.liveBank, r.seen = st.Bank, true
	r.mu.Unlock()

	if !r.diverged(st.Bank) {
		return false, nil
	}

	s := r.s
	s.navMu.Lock()
	defer s.navMu.Unlock()
	// a local navigation may have run while we waited for navMu
	if !r.diverged(st.Bank) {
		return false, nil
	}

	release, err := s.settle(ctx)
	if err != nil {
		return false, s.failStatus("sync failed: ", err)
	}
	defer release()

	s.mu.Lock()
	target := models.Cursor{Bank: st.Bank, Button: s.cursor.Button}
	s.mu.Unlock()
	snap, err := s.fetch(ctx, target, false)
	if err != nil {
		return false, s.failStatus("sync failed: ", err)
	}
	s.apply(snap)
	s.setStatus("synced", true)
	return true, nil
}

// diverged reports whether the hardware's bank differs from the session's
// and the last local navigation is older than the grace window.
func (r *Reconciler) diverged(live int) bool {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready || s.stale {
		return false
	}
	bank := models.Wrap(live, s.local.layout.BankCount)
	if bank == s.cursor.Bank {
		return false
	}
	return s.now().Sub(s.lastNavAt) > r.grace
}

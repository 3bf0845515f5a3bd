package autosave_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/micro-nova/footswitch-go/internal/autosave"
)

func TestSaver_MarkDirtyThenConverge(t *testing.T) {
	r := newRemote()
	log := &statusLog{}
	s := autosave.New("button", r.write, autosave.Options{Status: log.fn})

	r.set(7)
	s.MarkDirty()
	if !s.Dirty() {
		t.Fatal("MarkDirty did not set dirty")
	}
	if got := s.Snapshot().Version; got != 1 {
		t.Errorf("version = %d, want 1", got)
	}
	if e := log.last(); e.text != "editing…" || !e.ok {
		t.Errorf("status after edit = %+v, want editing…", e)
	}

	s.RequestConvergence()
	if err := s.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	writes, stored, _ := r.snapshot()
	if len(writes) != 1 || stored != 7 {
		t.Errorf("writes = %v, stored = %d, want [7] / 7", writes, stored)
	}
	if s.Dirty() || s.Saving() {
		t.Errorf("after convergence: dirty=%v saving=%v, want false/false", s.Dirty(), s.Saving())
	}
	if e := log.last(); e.text != "saved" || !e.ok {
		t.Errorf("status after save = %+v, want saved", e)
	}
}

func TestSaver_RequestWhenCleanIsNoop(t *testing.T) {
	r := newRemote()
	s := autosave.New("layout", r.write, autosave.Options{})

	s.RequestConvergence()
	if err := s.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait on idle saver: %v", err)
	}
	if writes, _, _ := r.snapshot(); len(writes) != 0 {
		t.Errorf("clean saver wrote %v", writes)
	}
}

func TestSaver_CoalescesEditsDuringWrite(t *testing.T) {
	r := newRemote()
	r.hold = true
	s := autosave.New("bank", r.write, autosave.Options{})

	r.set(1)
	s.MarkDirty()
	s.RequestConvergence()
	if v := waitStarted(t, r); v != 1 {
		t.Fatalf("first write sent %d, want 1", v)
	}

	// Three edits while the first write is in flight.
	for _, v := range []int{2, 3, 4} {
		r.set(v)
		s.MarkDirty()
		s.RequestConvergence()
	}
	if !s.Saving() {
		t.Fatal("expected loop to still be running")
	}

	releaseWrite(t, r)
	if v := waitStarted(t, r); v != 4 {
		t.Fatalf("second write sent %d, want latest value 4", v)
	}
	releaseWrite(t, r)

	if err := s.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	writes, stored, maxInFlight := r.snapshot()
	if len(writes) != 2 {
		t.Errorf("writes = %v, want exactly 2", writes)
	}
	if stored != 4 {
		t.Errorf("stored = %d, want 4", stored)
	}
	if maxInFlight != 1 {
		t.Errorf("max in-flight writes = %d, want 1", maxInFlight)
	}
	if s.Dirty() {
		t.Error("still dirty after converging")
	}
}

func TestSaver_FailureLeavesDirtyWithoutRetry(t *testing.T) {
	r := newRemote()
	boom := errors.New("connection refused")
	r.setFail(boom)
	log := &statusLog{}
	s := autosave.New("button", r.write, autosave.Options{Status: log.fn})

	r.set(5)
	err := s.SaveImmediate(waitCtx(t))
	if !errors.Is(err, boom) {
		t.Fatalf("SaveImmediate error = %v, want %v", err, boom)
	}
	if !s.Dirty() {
		t.Error("dirty cleared after a failed write")
	}
	if s.Saving() {
		t.Error("loop still marked saving after failure")
	}
	if !errors.Is(s.Err(), boom) {
		t.Errorf("Err() = %v, want %v", s.Err(), boom)
	}
	if e := log.last(); e.ok || e.text != "save failed: connection refused" {
		t.Errorf("status = %+v, want failure message", e)
	}

	time.Sleep(50 * time.Millisecond)
	if writes, _, _ := r.snapshot(); len(writes) != 1 {
		t.Errorf("writes after failure = %v, want exactly one (no automatic retry)", writes)
	}

	// The next edit retries.
	r.setFail(nil)
	s.MarkDirty()
	s.RequestConvergence()
	if err := s.Wait(waitCtx(t)); err != nil {
		t.Fatalf("retry Wait: %v", err)
	}
	if s.Dirty() || s.Err() != nil {
		t.Errorf("after retry: dirty=%v err=%v", s.Dirty(), s.Err())
	}
}

func TestSaver_GateSuppressesEdits(t *testing.T) {
	r := newRemote()
	gate := &autosave.Gate{}
	s := autosave.New("button", r.write, autosave.Options{Gate: gate})

	release := gate.Hold()
	s.MarkDirty()
	s.RequestConvergence()
	if err := s.SaveImmediate(waitCtx(t)); !errors.Is(err, autosave.ErrGateHeld) {
		t.Fatalf("SaveImmediate while loading = %v, want %v", err, autosave.ErrGateHeld)
	}
	snap := s.Snapshot()
	if snap.Dirty || snap.Version != 0 {
		t.Errorf("edits recorded while loading: %+v", snap)
	}
	if writes, _, _ := r.snapshot(); len(writes) != 0 {
		t.Errorf("writes while loading: %v", writes)
	}

	release()
	release() // idempotent
	if gate.Held() {
		t.Fatal("gate still held after release")
	}
	s.MarkDirty()
	if !s.Dirty() {
		t.Error("MarkDirty ignored after gate released")
	}
}

func TestSaver_SaveImmediateJoinsRunningLoop(t *testing.T) {
	r := newRemote()
	r.hold = true
	s := autosave.New("button", r.write, autosave.Options{})

	r.set(1)
	s.MarkDirty()
	s.RequestConvergence()
	waitStarted(t, r)

	r.set(2)
	done := make(chan error, 1)
	go func() { done <- s.SaveImmediate(context.Background()) }()

	releaseWrite(t, r)
	if v := waitStarted(t, r); v != 2 {
		t.Fatalf("second round sent %d, want 2", v)
	}
	select {
	case err := <-done:
		t.Fatalf("SaveImmediate returned before its value was written: %v", err)
	default:
	}
	releaseWrite(t, r)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("SaveImmediate: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SaveImmediate never returned")
	}
	if _, stored, maxInFlight := r.snapshot(); stored != 2 || maxInFlight != 1 {
		t.Errorf("stored=%d maxInFlight=%d, want 2/1", stored, maxInFlight)
	}
}

func TestSaver_MaxRoundsStopsRunawayLoop(t *testing.T) {
	var s *autosave.Saver
	writes := 0
	write := func(ctx context.Context) error {
		writes++
		s.MarkDirty() // an edit lands during every write
		return nil
	}
	s = autosave.New("led", write, autosave.Options{MaxRounds: 3})

	err := s.SaveImmediate(waitCtx(t))
	if !errors.Is(err, autosave.ErrUnsettled) {
		t.Fatalf("err = %v, want ErrUnsettled", err)
	}
	if writes != 3 {
		t.Errorf("writes = %d, want 3", writes)
	}
	if !s.Dirty() {
		t.Error("runaway loop must leave the resource dirty")
	}
}

func TestSaver_ResetKeepsVersionMonotonic(t *testing.T) {
	s := autosave.New("bank", func(context.Context) error { return nil }, autosave.Options{})
	s.MarkDirty()
	s.MarkDirty()
	s.Reset()
	snap := s.Snapshot()
	if snap.Dirty {
		t.Error("Reset did not clear dirty")
	}
	if snap.Version != 2 {
		t.Errorf("version after Reset = %d, want 2", snap.Version)
	}
}

func TestSaver_ConvergesUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		r := newRemote()
		var mu sync.Mutex
		slow := func(ctx context.Context) error {
			mu.Lock()
			d := time.Duration(rng.Intn(300)) * time.Microsecond
			mu.Unlock()
			time.Sleep(d)
			return r.write(ctx)
		}
		s := autosave.New("button", slow, autosave.Options{MaxRounds: -1})

		last := 0
		for i := 0; i < 50; i++ {
			last = i + 1
			r.set(last)
			s.MarkDirty()
			mu.Lock()
			commit := rng.Intn(3) == 0
			pause := time.Duration(rng.Intn(200)) * time.Microsecond
			mu.Unlock()
			if commit {
				s.RequestConvergence()
			}
			time.Sleep(pause)
		}
		if err := s.SaveImmediate(waitCtx(t)); err != nil {
			t.Fatalf("trial %d: final save: %v", trial, err)
		}

		_, stored, maxInFlight := r.snapshot()
		if stored != last {
			t.Errorf("trial %d: stored = %d, want last edit %d", trial, stored, last)
		}
		if maxInFlight != 1 {
			t.Errorf("trial %d: max in-flight = %d, want 1", trial, maxInFlight)
		}
		if s.Dirty() {
			t.Errorf("trial %d: still dirty", trial)
		}
	}
}

func TestSaver_QuietEditsSkipsEditingStatus(t *testing.T) {
	r := newRemote()
	log := &statusLog{}
	s := autosave.New("led", r.write, autosave.Options{Status: log.fn, QuietEdits: true})

	for v := 1; v <= 3; v++ {
		r.set(v)
		s.MarkDirty()
	}
	if e := log.last(); e != (statusEntry{}) {
		t.Errorf("status after quiet edits = %+v, want none", e)
	}

	s.RequestConvergence()
	if err := s.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if e := log.last(); e.text != "saved" || !e.ok {
		t.Errorf("status after save = %+v, want saved", e)
	}
}

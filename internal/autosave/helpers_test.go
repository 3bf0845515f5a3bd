package autosave_test

import (
	"context"
	"sync"
	"testing"
	"time"
)

// remote is a fake remote store for one integer resource. The write it
// exposes reads local at call time, like a real resource writer.
type remote struct {
	mu          sync.Mutex
	local       int
	stored      int
	writes      []int
	inFlight    int
	maxInFlight int
	fail        error

	// When hold is true each write blocks until the test sends on release.
	hold    bool
	release chan struct{}
	started chan int
}

func newRemote() *remote {
	return &remote{
		release: make(chan struct{}),
		started: make(chan int, 64),
	}
}

func (r *remote) set(v int) {
	r.mu.Lock()
	r.local = v
	r.mu.Unlock()
}

func (r *remote) write(ctx context.Context) error {
	r.mu.Lock()
	v := r.local
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	hold := r.hold
	r.mu.Unlock()

	select {
	case r.started <- v:
	default:
	}
	if hold {
		select {
		case <-r.release:
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	r.writes = append(r.writes, v)
	if r.fail != nil {
		return r.fail
	}
	r.stored = v
	return nil
}

func (r *remote) snapshot() (writes []int, stored, maxInFlight int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.writes...), r.stored, r.maxInFlight
}

func (r *remote) setFail(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

// statusLog records status callbacks.
type statusLog struct {
	mu      sync.Mutex
	entries []statusEntry
}

type statusEntry struct {
	text string
	ok   bool
}

func (l *statusLog) fn(text string, ok bool) {
	l.mu.Lock()
	l.entries = append(l.entries, statusEntry{text, ok})
	l.mu.Unlock()
}

func (l *statusLog) last() statusEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return statusEntry{}
	}
	return l.entries[len(l.entries)-1]
}

func waitStarted(t *testing.T, r *remote) int {
	t.Helper()
	select {
	case v := <-r.started:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a write to start")
		return 0
	}
}

func releaseWrite(t *testing.T, r *remote) {
	t.Helper()
	select {
	case r.release <- struct{}{}:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out releasing a write")
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

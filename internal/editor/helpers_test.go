package editor_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/micro-nova/footswitch-go/internal/config"
	"github.com/micro-nova/footswitch-go/internal/device"
	"github.com/micro-nova/footswitch-go/internal/editor"
	"github.com/micro-nova/footswitch-go/internal/events"
	"github.com/micro-nova/footswitch-go/internal/models"
)

// fakeRemote serves an in-memory device and records every call as
// "Method:args". Calls can be made to fail or to block.
type fakeRemote struct {
	dev *device.Controller

	mu      sync.Mutex
	ops     []string
	fail    map[string]error
	hold    map[string]chan struct{}
	started chan string
}

func newFakeRemote(t *testing.T, banks int) *fakeRemote {
	t.Helper()
	store := config.NewMemStoreWith(config.Defaults{Meta: models.DefaultMeta(), BankCount: banks})
	dev, err := device.New(store, events.NewBus[models.DeviceState]())
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	return &fakeRemote{
		dev:     dev,
		fail:    make(map[string]error),
		hold:    make(map[string]chan struct{}),
		started: make(chan string, 256),
	}
}

func appErr(e *models.AppError) error {
	if e == nil {
		return nil
	}
	return e
}

// call records op and applies any configured block or failure for method.
func (f *fakeRemote) call(ctx context.Context, method, op string) error {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	hold := f.hold[method]
	err := f.fail[method]
	f.mu.Unlock()

	select {
	case f.started <- op:
	default:
	}
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRemote) setFail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

// block makes method wait until the returned func is called.
func (f *fakeRemote) block(method string) (unblock func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.hold[method] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.hold, method)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *fakeRemote) opsLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// count returns how many recorded ops start with prefix.
func (f *fakeRemote) count(prefix string) int {
	n := 0
	for _, op := range f.opsLog() {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

// index returns the position of the first op equal to op, or -1.
func (f *fakeRemote) index(op string) int {
	for i, o := range f.opsLog() {
		if o == op {
			return i
		}
	}
	return -1
}

func (f *fakeRemote) clearOps() {
	f.mu.Lock()
	f.ops = nil
	f.mu.Unlock()
}

func (f *fakeRemote) Meta(ctx context.Context) (models.Meta, error) {
	if err := f.call(ctx, "Meta", "Meta"); err != nil {
		return models.Meta{}, err
	}
	return f.dev.Meta(), nil
}

func (f *fakeRemote) Layout(ctx context.Context) (models.Layout, error) {
	if err := f.call(ctx, "Layout", "Layout"); err != nil {
		return models.Layout{}, err
	}
	return f.dev.Layout(), nil
}

func (f *fakeRemote) SetLayout(ctx context.Context, l models.Layout) error {
	if err := f.call(ctx, "SetLayout", fmt.Sprintf("SetLayout:%d", l.BankCount)); err != nil {
		return err
	}
	_, e := f.dev.SetLayout(l)
	return appErr(e)
}

func (f *fakeRemote) Bank(ctx context.Context, bank int) (models.BankData, error) {
	if err := f.call(ctx, "Bank", fmt.Sprintf("Bank:%d", bank)); err != nil {
		return models.BankData{}, err
	}
	b, e := f.dev.Bank(bank)
	return b, appErr(e)
}

func (f *fakeRemote) SetBank(ctx context.Context, bank int, b models.BankData) error {
	if err := f.call(ctx, "SetBank", fmt.Sprintf("SetBank:%d", bank)); err != nil {
		return err
	}
	_, e := f.dev.SetBank(bank, b)
	return appErr(e)
}

func (f *fakeRemote) Button(ctx context.Context, bank, btn int) (models.ButtonMap, error) {
	if err := f.call(ctx, "Button", fmt.Sprintf("Button:%d/%d", bank, btn)); err != nil {
		return models.ButtonMap{}, err
	}
	m, e := f.dev.Button(bank, btn)
	return m, appErr(e)
}

func (f *fakeRemote) SetButton(ctx context.Context, bank, btn int, m models.ButtonMap) error {
	if err := f.call(ctx, "SetButton", fmt.Sprintf("SetButton:%d/%d", bank, btn)); err != nil {
		return err
	}
	_, e := f.dev.SetButton(bank, btn, m)
	return appErr(e)
}

func (f *fakeRemote) LED(ctx context.Context) (models.LED, error) {
	if err := f.call(ctx, "LED", "LED"); err != nil {
		return models.LED{}, err
	}
	return f.dev.LED(), nil
}

func (f *fakeRemote) SetLED(ctx context.Context, l models.LED) error {
	if err := f.call(ctx, "SetLED", fmt.Sprintf("SetLED:%d", l.Brightness)); err != nil {
		return err
	}
	_, e := f.dev.SetLED(l)
	return appErr(e)
}

func (f *fakeRemote) State(ctx context.Context) (models.LiveState, error) {
	if err := f.call(ctx, "State", "State"); err != nil {
		return models.LiveState{}, err
	}
	return f.dev.LiveState(), nil
}

func (f *fakeRemote) SetState(ctx context.Context, s models.LiveState) error {
	if err := f.call(ctx, "SetState", fmt.Sprintf("SetState:%d", s.Bank)); err != nil {
		return err
	}
	_, e := f.dev.SetLiveState(s)
	return appErr(e)
}

var _ editor.Remote = (*fakeRemote)(nil)

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// statusLog records every status line a session reports.
type statusLog struct {
	mu    sync.Mutex
	lines []models.Status
}

func (l *statusLog) fn(st models.Status) {
	l.mu.Lock()
	l.lines = append(l.lines, st)
	l.mu.Unlock()
}

func (l *statusLog) has(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.lines {
		if st.Text == text {
			return true
		}
	}
	return false
}

// newSession returns an initialised session over a fresh fake device.
func newSession(t *testing.T, banks int, opts editor.Options) (*editor.Session, *fakeRemote) {
	t.Helper()
	r := newFakeRemote(t, banks)
	if opts.Debounce == 0 {
		opts.Debounce = 30 * time.Millisecond
	}
	s := editor.New(r, opts)
	if err := s.Init(testCtx(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	r.clearOps()
	return s, r
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitStarted(t *testing.T, r *fakeRemote, op string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-r.started:
			if got == op {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s to start", op)
		}
	}
}

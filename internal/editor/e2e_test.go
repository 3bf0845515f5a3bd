package editor_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/micro-nova/footswitch-go/internal/api"
	"github.com/micro-nova/footswitch-go/internal/auth"
	"github.com/micro-nova/footswitch-go/internal/client"
	"github.com/micro-nova/footswitch-go/internal/config"
	"github.com/micro-nova/footswitch-go/internal/device"
	"github.com/micro-nova/footswitch-go/internal/editor"
	"github.com/micro-nova/footswitch-go/internal/events"
	"github.com/micro-nova/footswitch-go/internal/models"
)

// TestSession_OverHTTP runs a session against the real HTTP API.
func TestSession_OverHTTP(t *testing.T) {
	store := config.NewMemStoreWith(config.Defaults{Meta: models.DefaultMeta(), BankCount: 2})
	bus := events.NewBus[models.DeviceState]()
	dev, err := device.New(store, bus)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	authSvc, err := auth.NewService("")
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	srv := httptest.NewServer(api.NewRouter(dev, authSvc, bus))
	defer srv.Close()

	c, err := client.New(srv.URL, client.Options{RequestsPerSecond: 1000})
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	s := editor.New(c, editor.Options{Debounce: 20 * time.Millisecond})
	defer s.Close(context.Background())
	ctx := testCtx(t)

	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s.SetBankName("Clean")
	if err := s.AddAction(ctx, models.ListShort); err != nil {
		t.Fatalf("AddAction: %v", err)
	}
	s.SetActionField(models.ListShort, 0, editor.FieldA, 64)
	s.SetBrightness(55)

	if err := s.NextBank(ctx); err != nil {
		t.Fatalf("NextBank: %v", err)
	}

	st := dev.State()
	if st.Layout.Banks[0].Name != "Clean" {
		t.Errorf("bank 0 name = %q", st.Layout.Banks[0].Name)
	}
	if m := st.Buttons[0][0]; len(m.Short) != 1 || m.Short[0].A != 64 {
		t.Errorf("button 0/0 = %+v", m)
	}
	if st.LED.Brightness != 55 || st.Live.Bank != 1 {
		t.Errorf("led = %d, live bank = %d", st.LED.Brightness, st.Live.Bank)
	}

	if err := s.DeleteBank(ctx); err != nil {
		t.Fatalf("DeleteBank: %v", err)
	}
	err = s.DeleteBank(ctx)
	if !models.IsCode(err, "INVALID_OPERATION") {
		t.Errorf("deleting the last bank: err = %v", err)
	}
	if n := len(dev.Layout().Banks); n != 1 {
		t.Errorf("device has %d banks, want 1", n)
	}
}

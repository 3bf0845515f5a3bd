package editor

import (
	"context"

	"github.com/micro-nova/footswitch-go/internal/client"
	"github.com/micro-nova/footswitch-go/internal/models"
)

// Remote reads and fully replaces the device's resources. Setters replace,
// never merge.
type Remote interface {
	Meta(ctx context.Context) (models.Meta, error)
	Layout(ctx context.Context) (models.Layout, error)
	SetLayout(ctx context.Context, l models.Layout) error
	Bank(ctx context.Context, bank int) (models.BankData, error)
	SetBank(ctx context.Context, bank int, b models.BankData) error
	Button(ctx context.Context, bank, btn int) (models.ButtonMap, error)
	SetButton(ctx context.Context, bank, btn int, m models.ButtonMap) error
	LED(ctx context.Context) (models.LED, error)
	SetLED(ctx context.Context, l models.LED) error
	State(ctx context.Context) (models.LiveState, error)
	SetState(ctx context.Context, s models.LiveState) error
}

var _ Remote = (*client.Client)(nil)

package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/micro-nova/footswitch-go/internal/models"
)

func bankQuery(bank int) url.Values {
	return url.Values{"bank": {strconv.Itoa(bank)}}
}

func buttonQuery(bank, btn int) url.Values {
	q := bankQuery(bank)
	q.Set("btn", strconv.Itoa(btn))
	return q
}

// Meta fetches the device capabilities.
func (c *Client) Meta(ctx context.Context) (models.Meta, error) {
	var m models.Meta
	err := c.get(ctx, "/api/meta", nil, &m)
	return m, err
}

// Layout fetches the bank layout.
func (c *Client) Layout(ctx context.Context) (models.Layout, error) {
	var l models.Layout
	err := c.get(ctx, "/api/layout", nil, &l)
	return l, err
}

// SetLayout replaces the bank layout.
func (c *Client) SetLayout(ctx context.Context, l models.Layout) error {
	return c.post(ctx, "/api/layout", nil, l, nil)
}

// Bank fetches one bank's switch names.
func (c *Client) Bank(ctx context.Context, bank int) (models.BankData, error) {
	var b models.BankData
	err := c.get(ctx, "/api/bank", bankQuery(bank), &b)
	return b, err
}

// SetBank replaces one bank's switch names.
func (c *Client) SetBank(ctx context.Context, bank int, b models.BankData) error {
	return c.post(ctx, "/api/bank", bankQuery(bank), b, nil)
}

// Button fetches the mapping of one button.
func (c *Client) Button(ctx context.Context, bank, btn int) (models.ButtonMap, error) {
	var m models.ButtonMap
	err := c.get(ctx, "/api/button", buttonQuery(bank, btn), &m)
	return m, err
}

// SetButton replaces the mapping of one button.
func (c *Client) SetButton(ctx context.Context, bank, btn int, m models.ButtonMap) error {
	return c.post(ctx, "/api/button", buttonQuery(bank, btn), m, nil)
}

// LED fetches the LED brightness.
func (c *Client) LED(ctx context.Context) (models.LED, error) {
	var l models.LED
	err := c.get(ctx, "/api/led", nil, &l)
	return l, err
}

// SetLED replaces the LED brightness.
func (c *Client) SetLED(ctx context.Context, l models.LED) error {
	return c.post(ctx, "/api/led", nil, l, nil)
}

// State polls the hardware-observed live state.
func (c *Client) State(ctx context.Context) (models.LiveState, error) {
	var s models.LiveState
	err := c.get(ctx, "/api/state", nil, &s)
	return s, err
}

// SetState tells the hardware which bank is active.
func (c *Client) SetState(ctx context.Context, s models.LiveState) error {
	return c.post(ctx, "/api/state", nil, s, nil)
}

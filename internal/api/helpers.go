// Package api implements the footswitch device's HTTP API.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/micro-nova/footswitch-go/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
}

// Controller is the interface the handlers use to read and replace device state.
type Controller interface {
	State() models.DeviceState
	Meta() models.Meta
	Layout() models.Layout
	SetLayout(l models.Layout) (models.Layout, *models.AppError)
	Bank(bank int) (models.BankData, *models.AppError)
	SetBank(bank int, b models.BankData) (models.BankData, *models.AppError)
	Button(bank, btn int) (models.ButtonMap, *models.AppError)
	SetButton(bank, btn int, m models.ButtonMap) (models.ButtonMap, *models.AppError)
	LED() models.LED
	SetLED(l models.LED) (models.LED, *models.AppError)
	LiveState() models.LiveState
	SetLiveState(st models.LiveState) (models.LiveState, *models.AppError)
	StepBank(delta int) models.LiveState
	Press(btn int, hold time.Duration) (models.PressResult, *models.AppError)
	FactoryReset() models.DeviceState
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe(id string) <-chan models.DeviceState
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// intQuery reads a required integer query parameter by name.
func intQuery(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, &models.AppError{Code: "BAD_REQUEST", Message: "missing " + name + " parameter", Field: name, Status: http.StatusBadRequest}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &models.AppError{Code: "BAD_REQUEST", Message: "invalid " + name + " parameter", Field: name, Status: http.StatusBadRequest}
	}
	return n, nil
}

// decodeBody decodes the request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}

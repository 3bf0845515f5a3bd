package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/micro-nova/footswitch-go/internal/models"
)

// Every GET disables caching: the editor polls these and must never see a
// stale value.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

func (h *Handlers) getMeta(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, h.ctrl.Meta())
}

func (h *Handlers) getLayout(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, h.ctrl.Layout())
}

func (h *Handlers) setLayout(w http.ResponseWriter, r *http.Request) {
	var l models.Layout
	if err := decodeBody(r, &l); err != nil {
		writeError(w, err)
		return
	}
	out, appErr := h.ctrl.SetLayout(l)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getBank(w http.ResponseWriter, r *http.Request) {
	bank, err := intQuery(r, "bank")
	if err != nil {
		writeError(w, err)
		return
	}
	b, appErr := h.ctrl.Bank(bank)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) setBank(w http.ResponseWriter, r *http.Request) {
	bank, err := intQuery(r, "bank")
	if err != nil {
		writeError(w, err)
		return
	}
	var b models.BankData
	if err := decodeBody(r, &b); err != nil {
		writeError(w, err)
		return
	}
	out, appErr := h.ctrl.SetBank(bank, b)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getButton(w http.ResponseWriter, r *http.Request) {
	bank, btn, err := bankAndButton(r)
	if err != nil {
		writeError(w, err)
		return
	}
	m, appErr := h.ctrl.Button(bank, btn)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) setButton(w http.ResponseWriter, r *http.Request) {
	bank, btn, err := bankAndButton(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var m models.ButtonMap
	if err := decodeBody(r, &m); err != nil {
		writeError(w, err)
		return
	}
	out, appErr := h.ctrl.SetButton(bank, btn, m)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func bankAndButton(r *http.Request) (int, int, error) {
	bank, err := intQuery(r, "bank")
	if err != nil {
		return 0, 0, err
	}
	btn, err := intQuery(r, "btn")
	if err != nil {
		return 0, 0, err
	}
	return bank, btn, nil
}

func (h *Handlers) getLED(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, h.ctrl.LED())
}

func (h *Handlers) setLED(w http.ResponseWriter, r *http.Request) {
	var l models.LED
	if err := decodeBody(r, &l); err != nil {
		writeError(w, err)
		return
	}
	out, appErr := h.ctrl.SetLED(l)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getLiveState(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, h.ctrl.LiveState())
}

func (h *Handlers) setLiveState(w http.ResponseWriter, r *http.Request) {
	var st models.LiveState
	if err := decodeBody(r, &st); err != nil {
		writeError(w, err)
		return
	}
	out, appErr := h.ctrl.SetLiveState(st)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// stepBank mimics a press of the bank up (delta=1) or down (delta=-1) switch.
func (h *Handlers) stepBank(w http.ResponseWriter, r *http.Request) {
	delta := 1
	if s := r.URL.Query().Get("delta"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, models.ErrBadRequest("invalid delta parameter"))
			return
		}
		delta = n
	}
	writeJSON(w, http.StatusOK, h.ctrl.StepBank(delta))
}

// press mimics pressing a switch of the live bank for hold milliseconds.
func (h *Handlers) press(w http.ResponseWriter, r *http.Request) {
	btn, err := intQuery(r, "btn")
	if err != nil {
		writeError(w, err)
		return
	}
	holdMs := 0
	if s := r.URL.Query().Get("hold"); s != "" {
		if holdMs, err = strconv.Atoi(s); err != nil || holdMs < 0 {
			writeError(w, models.ErrBadRequest("invalid hold parameter"))
			return
		}
	}
	res, appErr := h.ctrl.Press(btn, time.Duration(holdMs)*time.Millisecond)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) factoryReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.FactoryReset())
}

func (h *Handlers) dumpState(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	writeJSON(w, http.StatusOK, h.ctrl.State())
}

package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/micro-nova/footswitch-go/internal/models"
)

const (
	sseKeepAlive = 15 * time.Second
	sseRetryMS   = 2000
)

// stateStream writes numbered "state" events to one subscriber.
type stateStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     uint64
}

func (s *stateStream) send(st models.DeviceState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: state\ndata: %s\n\n", s.seq, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *stateStream) ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// sseEvents streams the whole device state: one snapshot on connect, then
// every published change. Idle connections get a comment line every
// sseKeepAlive so proxies keep them open.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")

	id := uuid.NewString()
	ch := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id)

	// Drop the bus replay; the snapshot below is fresher.
	select {
	case <-ch:
	default:
	}

	stream := &stateStream{w: w, flusher: flusher}
	fmt.Fprintf(w, "retry: %d\n\n", sseRetryMS)
	if err := stream.send(h.ctrl.State()); err != nil {
		return
	}
	slog.Debug("api: subscriber connected", "id", id, "remote", r.RemoteAddr)

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()
	for {
		var err error
		select {
		case st, ok := <-ch:
			if !ok {
				return
			}
			err = stream.send(st)
		case <-ticker.C:
			err = stream.ping()
		case <-r.Context().Done():
			slog.Debug("api: subscriber gone", "id", id)
			return
		}
		if err != nil {
			slog.Debug("api: subscriber write failed", "id", id, "err", err)
			return
		}
	}
}

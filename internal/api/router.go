package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/micro-nova/footswitch-go/internal/auth"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(ctrl Controller, authSvc *auth.Service, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus}

	r.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)

		r.Get("/api/meta", h.getMeta)

		r.Get("/api/layout", h.getLayout)
		r.Post("/api/layout", h.setLayout)

		r.Get("/api/bank", h.getBank)
		r.Post("/api/bank", h.setBank)

		r.Get("/api/button", h.getButton)
		r.Post("/api/button", h.setButton)

		r.Get("/api/led", h.getLED)
		r.Post("/api/led", h.setLED)

		r.Get("/api/state", h.getLiveState)
		r.Post("/api/state", h.setLiveState)

		// SSE
		r.Get("/api/subscribe", h.sseEvents)

		// Simulator controls standing in for the physical bank switches
		r.Post("/sim/step", h.stepBank)
		r.Post("/sim/press", h.press)
		r.Post("/sim/factory_reset", h.factoryReset)
		r.Get("/sim/dump", h.dumpState)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, api-key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

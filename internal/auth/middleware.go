package auth

import (
	"encoding/json"
	"net/http"

	"github.com/micro-nova/footswitch-go/internal/models"
)

const (
	// HeaderName is the request header clients send their key in.
	HeaderName       = "api-key"
	apiKeyQueryParam = "api-key"
)

// Middleware returns an http.Handler middleware that enforces authentication.
// In open mode (no keys configured), all requests pass through.
// Otherwise, checks the api-key header and then the api-key query param, the
// latter for EventSource clients that cannot set headers.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}

		if key := r.Header.Get(HeaderName); key != "" && s.VerifyKey(key) {
			next.ServeHTTP(w, r)
			return
		}

		if key := r.URL.Query().Get(apiKeyQueryParam); key != "" && s.VerifyKey(key) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(models.ErrUnauthorized.Status)
		_ = json.NewEncoder(w).Encode(models.ErrUnauthorized)
	})
}

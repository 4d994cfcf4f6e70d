package calendarsync

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/auth"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Google authenticates with the channel token, not a bearer JWT.
	r.Post("/webhook", h.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)
		r.Post("/", h.Sync)
	})

	return r
}

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns auth router. credentialLimit guards signup and login.
func (h *Handler) Routes(authMiddleware, credentialLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(credentialLimit).Post("/signup", h.Signup)
	r.With(credentialLimit).Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.Me)
	})

	return r
}

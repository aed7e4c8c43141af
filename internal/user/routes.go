package user

import (
	"github.com/go-chi/chi/v5"
	"github.com/saulo-duarte/goal-tracker/internal/auth"
)

// Routes serves the /auth tree. Account routes need a token.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", auth.NewHandler().Logout)
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)
		r.Get("/me", h.Me)
		r.Put("/update", h.Update)
		r.Delete("/delete", h.Delete)
	})
	return r
}

package goal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/create", h.Create)
	r.Put("/update", h.Update)
	r.Get("/user/{userID}", h.ListByUser)
	r.Get("/suggestions/{userID}", h.Suggestions)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)

	return r
}

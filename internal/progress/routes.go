package progress

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/{goalID}", h.AddUpdate)
	r.Get("/{goalID}", h.ListUpdates)
	return r
}

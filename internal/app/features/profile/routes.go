// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeProfile)
		pr.Post("/", h.HandleUpdate)
		pr.Put("/", h.HandleUpdate)
		pr.Delete("/", h.HandleDelete)

		// Paths kept from the first version of the API.
		pr.Post("/create", h.HandleUpdate)
		pr.Put("/update", h.HandleUpdate)

		pr.Get("/completion", h.ServeCompletion)
	})

	return r
}

// internal/app/features/family/routes.go
package family

import (
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the family feature; bootstrap mounts it at "/family".
// Static segments (create, join, my-family, leave, requests) win over
// the {id} family code in chi's matcher.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// MEMBERSHIP
		pr.Post("/create", h.Create)
		pr.Post("/join", h.Join)
		pr.Get("/my-family", h.MyFamily)
		pr.Post("/leave", h.Leave)

		// JOIN REQUESTS
		pr.Post("/requests/{id}/process", h.ProcessRequest)
		pr.Post("/{id}/requests", h.CreateRequest)
		pr.Get("/{id}/requests", h.ListRequests)

		// LOOKUP
		pr.Get("/{id}", h.Get)
	})

	return r
}

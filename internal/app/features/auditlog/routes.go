// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity feed; bootstrap mounts it at "/activity".
// Users only ever see their own events.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
	})

	return r
}

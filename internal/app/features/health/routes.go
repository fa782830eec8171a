// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes serves the database health check. Mounted at /health, outside the
// API prefix, so load balancers need no token.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	return r
}

// internal/app/features/mobileauth/routes.go
package mobileauth

import (
	"github.com/dalemusser/drshaadi/internal/app/system/auth"
	"github.com/dalemusser/drshaadi/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes wires the auth endpoints; bootstrap mounts them at "/auth".
// ipLimiter, when non-nil, throttles OTP sends per client IP.
func Routes(h *Handler, sm *auth.SessionManager, ipLimiter *ratelimit.IPLimiter) chi.Router {
	r := chi.NewRouter()

	r.Group(func(or chi.Router) {
		if ipLimiter != nil {
			or.Use(ipLimiter.Middleware)
		}
		or.Post("/send-otp", h.SendOTP)
	})
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.Me)
	})

	return r
}

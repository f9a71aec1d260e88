package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/handlers"
	"reddot/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

// The credential endpoints sit behind a per-IP rate limit; everything
// here is a brute-force or enumeration surface.
func registerAuth(r chi.Router, d deps.Deps) {
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             10,
		RefillPerIPPerMin: 10,
		MaxEntries:        10_000,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	}))

	limited.Post("/auth/register", handlers.Register(d))
	limited.Post("/auth/login", handlers.Login(d))
	limited.Post("/auth/confirm-account", handlers.ConfirmAccount(d))
	limited.Post("/auth/resend-confirmation", handlers.ResendConfirmation(d))
	limited.Post("/auth/forgot-password", handlers.ForgotPassword(d))
	limited.Post("/auth/reset-password", handlers.ResetPassword(d))
}

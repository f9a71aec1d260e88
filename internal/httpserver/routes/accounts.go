package routes

import (
	"github.com/go-chi/chi/v5"

	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/handlers"
	"reddot/internal/httpserver/mw"
)

func init() { Register(registerAccounts) }

func registerAccounts(r chi.Router, d deps.Deps) {
	r.Get("/users/{userID}", handlers.GetProfile(d))
	r.Get("/users/{userID}/questions", handlers.ListUserQuestions(d))
	r.Get("/users/{userID}/comments", handlers.ListUserComments(d))

	authed := r.With(mw.RequireAuth)
	authed.Put("/settings/profile", handlers.UpdateProfile(d))
	authed.Post("/settings/email", handlers.RequestEmailChange(d))
	authed.Post("/settings/delete-request", handlers.RequestDeletion(d))

	// Email-change confirmation arrives from a mail link; the session
	// may be gone by then, the token alone authenticates.
	r.Post("/settings/email/confirm", handlers.ConfirmEmail(d))
}

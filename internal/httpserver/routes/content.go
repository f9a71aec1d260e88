package routes

import (
	"github.com/go-chi/chi/v5"

	"reddot/internal/domain"
	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/handlers"
	"reddot/internal/httpserver/mw"
)

func init() { Register(registerContent) }

func registerContent(r chi.Router, d deps.Deps) {
	// Public reads.
	r.Get("/questions", handlers.ListQuestions(d))
	r.Get("/questions/search", handlers.SearchQuestions(d))
	r.Get("/questions/{id}", handlers.GetQuestion(d))
	r.Get("/comments/{id}", handlers.GetComment(d))
	r.Get("/tags", handlers.ListTags(d))

	// Mutations require a session.
	authed := r.With(mw.RequireAuth)
	authed.Post("/questions", handlers.CreateQuestion(d))
	authed.Put("/questions/{id}", handlers.EditQuestion(d))
	authed.Delete("/questions/{id}", handlers.DeleteQuestion(d))
	authed.Post("/questions/{id}/comments", handlers.CreateQuestionComment(d))

	authed.Put("/comments/{id}", handlers.EditComment(d))
	authed.Delete("/comments/{id}", handlers.DeleteComment(d))
	authed.Post("/comments/{id}/replies", handlers.CreateReply(d))

	authed.Post("/questions/{id}/vote", handlers.Vote(d, domain.KindQuestion))
	authed.Delete("/questions/{id}/vote", handlers.Unvote(d, domain.KindQuestion))
	authed.Post("/questions/{id}/bookmark", handlers.ToggleBookmark(d, domain.KindQuestion))

	authed.Post("/comments/{id}/vote", handlers.Vote(d, domain.KindComment))
	authed.Delete("/comments/{id}/vote", handlers.Unvote(d, domain.KindComment))
	authed.Post("/comments/{id}/bookmark", handlers.ToggleBookmark(d, domain.KindComment))
}

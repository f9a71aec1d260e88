package handlers

import (
	"net/http"

	"reddot/internal/domain"
	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/mw"
)

type commentRequest struct {
	Text string `json:"text"`
}

// CreateQuestionComment attaches a top-level comment to a question.
func CreateQuestionComment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in commentRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		view, err := d.Content.CreateComment(r.Context(), mw.Actor(r), domain.QuestionRef(id), in.Text)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

// CreateReply attaches a reply under an existing comment.
func CreateReply(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in commentRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		view, err := d.Content.CreateComment(r.Context(), mw.Actor(r), domain.CommentRef(id), in.Text)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func ListUserComments(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		views, err := d.Content.ListCommentsByUser(r.Context(), mw.Actor(r), userID, includeHidden(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func GetComment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		view, err := d.Content.GetComment(r.Context(), mw.Actor(r), id, includeHidden(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func EditComment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in commentRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		view, err := d.Content.EditComment(r.Context(), mw.Actor(r), id, in.Text)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func DeleteComment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := d.Content.SoftDeleteComment(r.Context(), mw.Actor(r), id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

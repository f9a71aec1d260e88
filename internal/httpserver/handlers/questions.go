package handlers

import (
	"net/http"

	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/mw"
	"reddot/internal/service"
)

func CreateQuestion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.QuestionInput
		if !decodeJSON(w, r, &in) {
			return
		}
		view, err := d.Content.CreateQuestion(r.Context(), mw.Actor(r), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func GetQuestion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		view, err := d.Content.GetQuestion(r.Context(), mw.Actor(r), id, includeHidden(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func ListQuestions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := d.Content.ListQuestions(r.Context(), mw.Actor(r), includeHidden(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func ListUserQuestions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		key := service.SortByNewest
		if r.URL.Query().Get("sort") == string(service.SortByScore) {
			key = service.SortByScore
		}
		views, err := d.Content.ListByUser(r.Context(), mw.Actor(r), userID, key, includeHidden(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func SearchQuestions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("q")
		if keyword == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
			return
		}
		views, err := d.Content.SearchQuestions(r.Context(), mw.Actor(r), keyword)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func EditQuestion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in service.QuestionInput
		if !decodeJSON(w, r, &in) {
			return
		}
		view, err := d.Content.EditQuestion(r.Context(), mw.Actor(r), id, in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func DeleteQuestion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := d.Content.SoftDeleteQuestion(r.Context(), mw.Actor(r), id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := d.Content.ListTags(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// includeHidden grants the moderation view only to super users; the
// query flag alone is not enough.
func includeHidden(r *http.Request) bool {
	if r.URL.Query().Get("include_hidden") != "true" {
		return false
	}
	return mw.Actor(r).IsSuperUser()
}

package handlers

import (
	"net/http"

	"reddot/internal/domain"
	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/mw"
)

type voteRequest struct {
	Direction string `json:"direction"` // "up" | "down"
}

// Vote applies the actor's vote to a question or comment. The target
// kind comes from the route.
func Vote(d deps.Deps, kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in voteRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		var dir domain.VoteDirection
		switch in.Direction {
		case "up":
			dir = domain.VoteUp
		case "down":
			dir = domain.VoteDown
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "direction must be up or down"})
			return
		}
		counts, err := d.Content.ApplyVote(r.Context(), mw.Actor(r), domain.ContentRef{Kind: kind, ID: id}, dir)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

// Unvote withdraws the actor's vote.
func Unvote(d deps.Deps, kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		counts, err := d.Content.RemoveVote(r.Context(), mw.Actor(r), domain.ContentRef{Kind: kind, ID: id})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

type bookmarkResponse struct {
	Bookmarked bool `json:"bookmarked"`
}

// ToggleBookmark flips the actor's bookmark on the target.
func ToggleBookmark(d deps.Deps, kind domain.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		on, err := d.Content.ToggleBookmark(r.Context(), mw.Actor(r), domain.ContentRef{Kind: kind, ID: id})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookmarkResponse{Bookmarked: on})
	}
}

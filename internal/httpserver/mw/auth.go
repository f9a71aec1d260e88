package mw

import (
	"context"
	"net/http"
	"strings"

	"reddot/internal/auth"
	"reddot/internal/domain"
	"reddot/internal/logger"
	"reddot/internal/store"
)

type actorKey struct{}

// Actor returns the authenticated user from the request context, or nil
// for anonymous requests.
func Actor(r *http.Request) *domain.User {
	u, _ := r.Context().Value(actorKey{}).(*domain.User)
	return u
}

// Auth resolves the bearer token into a user and stores it in the
// context. The account is reloaded on every request so role and enabled
// changes apply immediately. Missing or bad tokens leave the request
// anonymous; RequireAuth decides whether that is acceptable.
func Auth(sessions *auth.Sessions, users store.UserStore, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := sessions.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			u, err := users.Get(r.Context(), userID)
			if err != nil {
				log.Debug("session user not found", logger.Int64("user_id", userID))
				next.ServeHTTP(w, r)
				return
			}
			if !u.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Actor(r) == nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="reddot"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

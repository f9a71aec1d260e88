package handlers

import (
	"net/http"
	"time"

	"reddot/internal/domain"
	"reddot/internal/httpserver/deps"
	"reddot/internal/httpserver/mw"
	"reddot/internal/service"
)

// userView is the public shape of an account. Credentials never leave
// the service layer.
type userView struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email,omitempty"`
	Role          domain.Role     `json:"role"`
	Enabled       bool            `json:"enabled"`
	EmailVerified bool            `json:"email_verified"`
	AvatarURL     string          `json:"avatar_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Profile       *domain.Profile `json:"profile,omitempty"`
}

func toUserView(u *domain.User, includeEmail bool) userView {
	v := userView{
		ID:            u.ID,
		Username:      u.Username,
		Role:          u.Role,
		Enabled:       u.Enabled,
		EmailVerified: u.EmailVerified,
		AvatarURL:     u.AvatarURL,
		CreatedAt:     u.CreatedAt,
		Profile:       u.Profile,
	}
	if includeEmail {
		v.Email = u.Email
	}
	return v
}

func Register(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterInput
		if !decodeJSON(w, r, &in) {
			return
		}
		res, err := d.Accounts.Register(r.Context(), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in loginRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		u, err := d.Accounts.Login(r.Context(), in.Username, in.Password)
		if err != nil {
			writeErr(w, err)
			return
		}
		token, err := d.Sessions.Issue(u.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserView(u, true)})
	}
}

type tokenRequest struct {
	Token string `json:"token"`
}

func ConfirmAccount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in tokenRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		u, err := d.Accounts.ConfirmAccount(r.Context(), in.Token)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(u, true))
	}
}

type emailRequest struct {
	Email string `json:"email"`
}

type warningResponse struct {
	Warning string `json:"warning,omitempty"`
}

func ResendConfirmation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in emailRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		warning, err := d.Accounts.ResendConfirmation(r.Context(), in.Email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, warningResponse{Warning: warning})
	}
}

func RequestEmailChange(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in emailRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		warning, err := d.Accounts.RequestEmailChange(r.Context(), mw.Actor(r), in.Email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, warningResponse{Warning: warning})
	}
}

func ConfirmEmail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in tokenRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		u, err := d.Accounts.ConfirmEmail(r.Context(), in.Token)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(u, true))
	}
}

func ForgotPassword(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in emailRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		warning, err := d.Accounts.RequestPasswordReset(r.Context(), in.Email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, warningResponse{Warning: warning})
	}
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func ResetPassword(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in resetPasswordRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		warning, err := d.Accounts.ResetPassword(r.Context(), in.Token, in.Password)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, warningResponse{Warning: warning})
	}
}

func RequestDeletion(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warning, err := d.Accounts.RequestDeletion(r.Context(), mw.Actor(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, warningResponse{Warning: warning})
	}
}

func GetProfile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		u, err := d.Accounts.Profile(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		actor := mw.Actor(r)
		own := actor != nil && (actor.ID == u.ID || actor.IsSuperUser())
		writeJSON(w, http.StatusOK, toUserView(u, own))
	}
}

func UpdateProfile(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.Profile
		if !decodeJSON(w, r, &in) {
			return
		}
		u, err := d.Accounts.UpdateProfile(r.Context(), mw.Actor(r), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(u, true))
	}
}

package domain

import "time"

// Role grants moderation privileges. Every account starts as RoleUser.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// User is an account. New accounts are disabled and unverified until
// the confirmation token from the registration mail is consumed.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role

	Enabled       bool
	EmailVerified bool

	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastAccessAt *time.Time

	// Profile is attached on first account confirmation.
	Profile *Profile
}

// Profile holds the public-facing part of an account.
type Profile struct {
	DisplayName string
	About       string
	Location    string
	WebsiteURL  string
}

// IsSuperUser reports whether the user holds a moderation role.
func (u *User) IsSuperUser() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

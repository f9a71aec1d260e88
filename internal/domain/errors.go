package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Security token failures. Reported distinctly so clients can tell
// "request a new token" from "already confirmed".
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenUsed     = errors.New("token already used")
	ErrTokenExpired  = errors.New("token expired")
)

// ValidationError reports malformed input. All independent violations
// are collected before failing, never just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Violated builds a ValidationError, or nil when nothing was violated.
func Violated(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// NotFoundError reports a missing or invisible entity. Invisible
// content reports as not found so that existence is never disclosed to
// callers who may not see it.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NotFound builds a NotFoundError for an id-keyed resource.
func NotFound(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: fmt.Sprintf("%d", id)}
}

// ErrInvalidCredentials is returned by the login path. It deliberately
// does not say whether the account or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// PermissionError reports an authorization denial.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return "not permitted to " + e.Action
}

// Conflict reasons.
const (
	ConflictAlreadyQueued  = "account already queued for deletion"
	ConflictSamePassword   = "new password must differ from the current one"
	ConflictEmailExists    = "email already exists"
	ConflictEmailConfirmed = "email already confirmed"
	ConflictEmailPending   = "email awaiting confirmation"
)

// ConflictError reports a request that clashes with current state.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// IsConflict reports whether err is a ConflictError with the reason.
func IsConflict(err error, reason string) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Reason == reason
}

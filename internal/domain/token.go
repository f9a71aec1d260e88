package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind separates the two short-lived security token families.
type TokenKind string

const (
	// TokenConfirm verifies an email address (registration, email change).
	TokenConfirm TokenKind = "confirm"
	// TokenRecover authorizes a password reset.
	TokenRecover TokenKind = "recover"
)

// SecurityToken is a single-use credential. Its lifecycle is
// issued -> consumed (terminal) or issued -> expired (terminal,
// detected lazily at use time). Consumption is the only mutation;
// a token is never reset to issued.
type SecurityToken struct {
	Kind        TokenKind
	Token       string
	OwnerID     int64
	IssuedAt    time.Time
	ValidBefore time.Time
	ConsumedAt  *time.Time
}

// NewSecurityToken issues a fresh token valid for ttl.
// The token string is an opaque random identifier.
func NewSecurityToken(kind TokenKind, ownerID int64, ttl time.Duration, now time.Time) *SecurityToken {
	return &SecurityToken{
		Kind:        kind,
		Token:       uuid.NewString(),
		OwnerID:     ownerID,
		IssuedAt:    now,
		ValidBefore: now.Add(ttl),
	}
}

// Usable reports whether the token can still be consumed at now.
// It returns ErrTokenUsed or ErrTokenExpired otherwise, without
// mutating the token.
func (t *SecurityToken) Usable(now time.Time) error {
	if t.ConsumedAt != nil {
		return ErrTokenUsed
	}
	if now.After(t.ValidBefore) {
		return ErrTokenExpired
	}
	return nil
}

// Consume marks the token used. Callers must have checked Usable first;
// stores are expected to make the check-and-set atomic.
func (t *SecurityToken) Consume(now time.Time) {
	ts := now
	t.ConsumedAt = &ts
}

// DeleteRequest queues an account for deletion. At most one exists per
// user; a later successful login revokes it.
type DeleteRequest struct {
	UserID    int64
	CreatedAt time.Time
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4) // low cost keeps the test fast

	digest, err := h.Hash("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", digest)

	assert.True(t, h.Matches("s3cret-password", digest))
	assert.False(t, h.Matches("wrong", digest))
}

func TestSessionsRoundTrip(t *testing.T) {
	s := NewSessions([]byte("test-secret"), time.Hour, nil)

	tok, err := s.Issue(42)
	require.NoError(t, err)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestSessionsRejects(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewSessions([]byte("test-secret"), time.Hour, func() time.Time { return now })

	tok, err := s.Issue(7)
	require.NoError(t, err)

	// Expired.
	later := NewSessions([]byte("test-secret"), time.Hour, func() time.Time { return now.Add(2 * time.Hour) })
	_, err = later.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Wrong secret.
	other := NewSessions([]byte("other-secret"), time.Hour, func() time.Time { return now })
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Garbage.
	_, err = s.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecurityToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tok := NewSecurityToken(TokenConfirm, 42, 24*time.Hour, now)
	require.NotEmpty(t, tok.Token)
	assert.Equal(t, TokenConfirm, tok.Kind)
	assert.Equal(t, int64(42), tok.OwnerID)
	assert.Equal(t, now, tok.IssuedAt)
	assert.Equal(t, now.Add(24*time.Hour), tok.ValidBefore)
	assert.Nil(t, tok.ConsumedAt)

	other := NewSecurityToken(TokenConfirm, 42, 24*time.Hour, now)
	assert.NotEqual(t, tok.Token, other.Token, "token strings must be unique")
}

func TestSecurityTokenUsable(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tok := NewSecurityToken(TokenRecover, 1, time.Hour, now)

	require.NoError(t, tok.Usable(now))
	require.NoError(t, tok.Usable(now.Add(59*time.Minute)))

	assert.ErrorIs(t, tok.Usable(now.Add(2*time.Hour)), ErrTokenExpired)

	tok.Consume(now.Add(time.Minute))
	require.NotNil(t, tok.ConsumedAt)
	assert.ErrorIs(t, tok.Usable(now.Add(2*time.Minute)), ErrTokenUsed)

	// Consumption wins over expiry once set.
	assert.ErrorIs(t, tok.Usable(now.Add(3*time.Hour)), ErrTokenUsed)
}

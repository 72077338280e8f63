package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("secret", "user-1", RoleUser, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.False(t, claims.IsGuest())
	assert.False(t, claims.IsStaff())
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken("secret", "user-1", RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := IssueToken("secret", "guest_abc", RoleGuest, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenEmpty(t *testing.T) {
	_, err := ParseToken("secret", "Bearer ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGuestToken(t *testing.T) {
	token, err := IssueToken("secret", "guest_abc", RoleGuest, guestTTL)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest())
}

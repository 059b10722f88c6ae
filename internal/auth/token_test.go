package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret", "flightreserve")

	token, err := v.Issue(42, RoleAdmin, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.True(t, p.IsAdmin())
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := NewTokenVerifier("secret", "flightreserve")

	expired, err := v.Issue(1, "user", -time.Minute)
	require.NoError(t, err)
	otherKey, err := NewTokenVerifier("other", "flightreserve").Issue(1, "user", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewTokenVerifier("secret", "someone-else").Issue(1, "user", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = BearerToken("Basic abc")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

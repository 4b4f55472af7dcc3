package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskpulse/domain"
)

var now = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestFromTokenReadsClaims(t *testing.T) {
	token := signed(t, tokenClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	s, err := FromToken(token, now)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "jti-1", s.ID)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt.UTC())
	assert.Equal(t, token, s.Credential(now))
}

func TestFromTokenFallsBackToSubject(t *testing.T) {
	token := signed(t, jwt.RegisteredClaims{Subject: "user-2"})
	s, err := FromToken(token, now)
	require.NoError(t, err)
	assert.Equal(t, "user-2", s.UserID)
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.ExpiresAt.IsZero())
}

func TestFromTokenRejectsExpired(t *testing.T) {
	token := signed(t, tokenClaims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))},
	})
	_, err := FromToken(token, now)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestFromTokenAcceptsOpaqueTokens(t *testing.T) {
	s, err := FromToken("opaque-token", now)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", s.Token)
	assert.Empty(t, s.UserID)
	assert.False(t, s.IsExpired(now.Add(1000*time.Hour)))
}

func TestFromTokenRequiresToken(t *testing.T) {
	_, err := FromToken("", now)
	assert.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestCredentialExpiresAndRevokes(t *testing.T) {
	current := now
	c := newCredential(domain.Session{Token: "tok", ExpiresAt: now.Add(time.Minute)}, func() time.Time { return current })
	assert.Equal(t, "tok", c.Credential())

	current = now.Add(time.Minute)
	assert.Empty(t, c.Credential())

	current = now
	c.Revoke()
	assert.Empty(t, c.Credential())
}

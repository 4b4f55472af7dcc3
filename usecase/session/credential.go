package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/fastygo/taskpulse/domain"
)

// Credential is the bearer token of one live session. It yields "" once revoked or expired,
// which stops the gateway from issuing any request.
type Credential struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	revoked   bool
	now       func() time.Time
}

func newCredential(s domain.Session, now func() time.Time) *Credential {
	return &Credential{token: s.Token, expiresAt: s.ExpiresAt, now: now}
}

func (c *Credential) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.revoked || c.token == "" {
		return ""
	}
	if !c.expiresAt.IsZero() && !c.expiresAt.After(c.now()) {
		return ""
	}
	return c.token
}

func (c *Credential) Revoke() {
	c.mu.Lock()
	c.revoked = true
	c.token = ""
	c.mu.Unlock()
}

type tokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// FromToken builds a session around a bearer token. When the token is a JWT its user and
// expiry are read from the claims; the signature is not checked, that is the service's job.
// Opaque tokens never expire on the client side.
func FromToken(token string, now time.Time) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrNoCredential
	}
	s := &domain.Session{ID: uuid.NewString(), Token: token, CreatedAt: now}

	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return s, nil
	}
	s.UserID = claims.UserID
	if s.UserID == "" {
		s.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.ID != "" {
		s.ID = claims.ID
	}
	if s.IsExpired(now) {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "token expired")
	}
	return s, nil
}

package domain

import "time"

// Session is an authenticated login. Token is the bearer credential for the service.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Credential returns the bearer token, or "" when the session cannot authenticate requests.
func (s *Session) Credential(reference time.Time) string {
	if s == nil || s.Token == "" || s.IsExpired(reference) {
		return ""
	}
	return s.Token
}

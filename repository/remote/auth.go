package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

// Login exchanges a user id for a bearer token. It does not require an existing credential.
func (c *Client) Login(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	body := transport.AuthLoginRequest{UserID: userID, TTL: int(ttl.Seconds())}
	var out transport.AuthLoginResponse
	if err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/auth/login", body: body, public: true}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, domain.ErrMalformed
	}
	if out.UserID == "" {
		out.UserID = userID
	}
	return &domain.Session{
		ID:        uuid.NewString(),
		UserID:    out.UserID,
		Token:     out.Token,
		ExpiresAt: out.ExpiresAt,
		CreatedAt: time.Now(),
	}, nil
}

var _ repository.AuthGateway = (*Client)(nil)

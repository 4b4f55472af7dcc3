package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskpulse/domain"
)

// SessionRepository keeps logins between CLI invocations.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
}

// AuthGateway obtains a bearer token from the service.
type AuthGateway interface {
	Login(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error)
}

package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

// Store keeps logins in a SessionRepository so they survive between CLI invocations.
type Store struct {
	auth     repository.AuthGateway
	sessions repository.SessionRepository
	logger   *zap.Logger
}

func NewStore(auth repository.AuthGateway, sessions repository.SessionRepository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{auth: auth, sessions: sessions, logger: logger}
}

// Login obtains a token for userID and persists the session.
func (s *Store) Login(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	if s.auth == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "login unavailable")
	}
	session, err := s.auth.Login(ctx, userID, ttl)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}
	s.logger.Info("session created", zap.String("session_id", session.ID), zap.String("user_id", session.UserID))
	return session, nil
}

// Save persists an existing session, e.g. one built from a static token.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	if s.sessions == nil {
		return domain.NewError(domain.ErrCodeInternal, "session storage unavailable")
	}
	return s.sessions.Save(ctx, session)
}

// Get returns a stored session. Expired sessions are removed and reported as not found.
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	if s.sessions == nil {
		return nil, domain.ErrSessionNotFound
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) Refresh(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	if s.sessions == nil {
		return nil, domain.ErrSessionNotFound
	}
	if err := s.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, err
	}
	return s.sessions.Get(ctx, sessionID)
}

func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Resolve picks the session to run with: a static token first, then a stored session id.
func (s *Store) Resolve(ctx context.Context, token, sessionID string) (*domain.Session, error) {
	if token != "" {
		return FromToken(token, time.Now())
	}
	if sessionID != "" {
		return s.Get(ctx, sessionID)
	}
	return nil, domain.ErrNoCredential
}

package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase"
	"github.com/fastygo/taskpulse/usecase/analytics"
	"github.com/fastygo/taskpulse/usecase/task"
)

// CredentialSource yields the bearer token for the next request.
type CredentialSource interface {
	Credential() string
}

// Gateways are the remote ports bound to one session's credential.
type Gateways struct {
	Tasks     repository.TaskGateway
	Schedule  repository.ScheduleGateway
	Analytics repository.AnalyticsGateway
	Events    repository.EventGateway
}

// Tracker is an event tracker with a shutdown.
type Tracker interface {
	usecase.EventTracker
	Close(ctx context.Context) error
}

// Refresher pulls fresh state from the service.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler runs periodic work for the lifetime of a session.
type Scheduler interface {
	Start()
	Stop(ctx context.Context) error
}

// Options wires the session components. Only Gateways is required.
type Options struct {
	Gateways  func(creds CredentialSource) Gateways
	Tracker   func(events repository.EventGateway) Tracker
	Scheduler func(target Refresher) (Scheduler, error)
	// RefreshTimeout bounds each analytics fetch; zero keeps the analytics default.
	RefreshTimeout time.Duration
	Logger         *zap.Logger
	Now            func() time.Time
}

// Context holds everything scoped to one authenticated session.
// Nothing in it outlives End.
type Context struct {
	Session   domain.Session
	Tasks     *task.UseCase
	Analytics *analytics.UseCase

	creds     *Credential
	tracker   Tracker
	scheduler Scheduler
}

// Credential returns the current bearer token, "" after End.
func (c *Context) Credential() string {
	return c.creds.Credential()
}

// Manager owns at most one live Context.
type Manager struct {
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	current *Context
}

func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{opts: opts, logger: opts.Logger}
}

// Begin starts a session: it builds the session components, loads the task list and
// refreshes analytics. A session that cannot authenticate is rejected before any request.
// A live session is ended first.
func (m *Manager) Begin(ctx context.Context, s *domain.Session) (*Context, error) {
	if s == nil || s.Credential(m.opts.Now()) == "" {
		return nil, domain.ErrUnauthorized
	}
	if m.opts.Gateways == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "session gateways not configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if err := m.end(ctx, m.current); err != nil {
			m.logger.Warn("previous session ended with errors", zap.Error(err))
		}
		m.current = nil
	}

	sc, err := m.build(*s)
	if err != nil {
		return nil, err
	}

	if err := sc.Tasks.Load(ctx); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			_ = m.end(ctx, sc)
			return nil, err
		}
		m.logger.Warn("initial task load failed", zap.Error(err))
	}
	if sc.scheduler != nil {
		sc.scheduler.Start()
	} else if err := sc.Analytics.Refresh(ctx); err != nil {
		m.logger.Warn("initial analytics refresh failed", zap.Error(err))
	}

	m.current = sc
	m.logger.Info("session started", zap.String("session_id", s.ID), zap.String("user_id", s.UserID))
	return sc, nil
}

// End tears down the live session. It is a no-op without one.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	sc := m.current
	m.current = nil
	err := m.end(ctx, sc)
	m.logger.Info("session ended", zap.String("session_id", sc.Session.ID))
	return err
}

// Current returns the live Context or nil.
func (m *Manager) Current() *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) build(s domain.Session) (*Context, error) {
	creds := newCredential(s, m.opts.Now)
	gw := m.opts.Gateways(creds)

	var tracker Tracker = nopTracker{}
	if m.opts.Tracker != nil && gw.Events != nil {
		tracker = m.opts.Tracker(gw.Events)
	}

	stats := analytics.New(gw.Analytics, m.logger.Named("analytics")).WithTimeout(m.opts.RefreshTimeout)
	tasks := task.New(gw.Tasks, gw.Schedule, tracker, stats, m.logger.Named("tasks")).WithClock(m.opts.Now)

	sc := &Context{
		Session:   s,
		Tasks:     tasks,
		Analytics: stats,
		creds:     creds,
		tracker:   tracker,
	}
	if m.opts.Scheduler != nil {
		scheduler, err := m.opts.Scheduler(stats)
		if err != nil {
			_ = tracker.Close(context.Background())
			return nil, domain.WrapError(domain.ErrCodeInternal, "start refresh scheduler", err)
		}
		sc.scheduler = scheduler
	}
	return sc, nil
}

// end stops background work first so nothing new is issued, flushes the tracker while the
// credential is still valid, then clears state and revokes the credential.
func (m *Manager) end(ctx context.Context, sc *Context) error {
	var err error
	if sc.scheduler != nil {
		err = multierr.Append(err, sc.scheduler.Stop(ctx))
	}
	err = multierr.Append(err, sc.tracker.Close(ctx))
	sc.creds.Revoke()
	sc.Tasks.Reset()
	sc.Analytics.Reset()
	return err
}

type nopTracker struct {
	usecase.NopTracker
}

func (nopTracker) Close(context.Context) error { return nil }

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/internal/config"
	"github.com/fastygo/taskpulse/internal/infrastructure/buffer"
	"github.com/fastygo/taskpulse/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/taskpulse/internal/infrastructure/redis"
	"github.com/fastygo/taskpulse/internal/services"
	"github.com/fastygo/taskpulse/internal/services/lifecycle"
	"github.com/fastygo/taskpulse/pkg/logger"
	"github.com/fastygo/taskpulse/repository"
	redisRepo "github.com/fastygo/taskpulse/repository/redis"
	"github.com/fastygo/taskpulse/repository/remote"
	"github.com/fastygo/taskpulse/usecase/session"
)

// app is the process-wide wiring shared by every command.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	lifecycle *lifecycle.Manager
	public    *remote.Client
	sessions  *session.Manager
	store     *session.Store
	monitor   *monitor.Monitor
	buffer    *buffer.Store
}

func bootstrap(ctx context.Context, envFiles []string) (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		lifecycle: lifecycle.New(cfg.Context.ShutdownTimeout, log),
	}
	a.lifecycle.Register(lifecycle.StageLogger, "logger", func(context.Context) error {
		_ = log.Sync()
		return nil
	})

	// credential-less client for health checks and login
	a.public = remote.NewClient(a.remoteConfig(), nil, log.Named("remote"))

	var sessions repository.SessionRepository
	if cfg.Redis.URL != "" {
		client, err := redisInfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("session store unavailable", zap.Error(err))
		} else {
			a.lifecycle.Register(lifecycle.StageStorage, "redis", func(context.Context) error { return client.Close() })
			sessions = redisRepo.NewSessionRepository(client, cfg.Session.TTL)
		}
	}
	a.store = session.NewStore(a.public, sessions, log.Named("session"))

	if cfg.Buffer.Enabled {
		if err := a.openBuffer(); err != nil {
			return nil, multierr.Append(err, a.lifecycle.Shutdown(ctx))
		}
	}

	a.sessions = session.NewManager(session.Options{
		Gateways:       a.gateways,
		Tracker:        a.tracker,
		Scheduler:      a.scheduler,
		RefreshTimeout: cfg.API.Timeout,
		Logger:         log,
	})
	// the tracker flush gets one request timeout of its own inside the shutdown budget
	a.lifecycle.Add(lifecycle.Hook{
		Name:    "session",
		Stage:   lifecycle.StageSession,
		Timeout: cfg.API.Timeout,
		Fn:      a.sessions.End,
	})
	return a, nil
}

func (a *app) openBuffer() error {
	store, err := buffer.Open(a.cfg.Buffer.Path, "")
	if err != nil {
		return fmt.Errorf("open event buffer: %w", err)
	}
	a.buffer = store
	a.lifecycle.Register(lifecycle.StageStorage, "buffer", func(context.Context) error { return store.Close() })

	a.monitor = monitor.New(a.public, a.cfg.Monitor.Interval, a.log.Named("monitor"))
	a.monitor.Start()
	a.lifecycle.Register(lifecycle.StageWorkers, "monitor", func(context.Context) error {
		a.monitor.Stop()
		return nil
	})
	return nil
}

func (a *app) remoteConfig() remote.Config {
	return remote.Config{
		BaseURL:   a.cfg.API.BaseURL,
		Timeout:   a.cfg.API.Timeout,
		MaxConns:  a.cfg.API.MaxConns,
		UserAgent: a.cfg.AppName + "/" + Version,
	}
}

func (a *app) gateways(creds session.CredentialSource) session.Gateways {
	client := remote.NewClient(a.remoteConfig(), creds, a.log.Named("remote"))
	return session.Gateways{Tasks: client, Schedule: client, Analytics: client, Events: client}
}

func (a *app) tracker(events repository.EventGateway) session.Tracker {
	cfg := services.TrackerConfig{QueueSize: a.cfg.Tracker.QueueSize, Rate: a.cfg.Tracker.Rate, Burst: 5}
	if a.buffer == nil {
		return services.NewEventTracker(events, nil, a.log.Named("tracker"), cfg)
	}
	processor := services.NewBufferProcessor(a.buffer, a.monitor, events, a.log.Named("buffer"), services.ProcessorConfig{
		Interval:   a.cfg.Buffer.SyncInterval,
		MaxRetries: a.cfg.Buffer.MaxRetry,
		MaxAge:     time.Duration(a.cfg.Buffer.RetentionHours) * time.Hour,
	})
	processor.Start()
	return &bufferedTracker{
		EventTracker: services.NewEventTracker(events, processor, a.log.Named("tracker"), cfg),
		processor:    processor,
	}
}

func (a *app) scheduler(target session.Refresher) (session.Scheduler, error) {
	return services.NewRefreshScheduler(target, a.cfg.Analytics.RefreshInterval, a.log.Named("refresh"))
}

// begin resolves the configured credential and starts a session with it.
func (a *app) begin(ctx context.Context) (*session.Context, error) {
	s, err := a.store.Resolve(ctx, a.cfg.Session.Token, a.cfg.Session.SessionID)
	if err != nil {
		return nil, err
	}
	return a.sessions.Begin(ctx, s)
}

func (a *app) shutdown() error {
	return a.lifecycle.Shutdown(context.Background())
}

// bufferedTracker stops its retry processor after the tracker has flushed into it.
type bufferedTracker struct {
	*services.EventTracker
	processor *services.BufferProcessor
}

func (t *bufferedTracker) Close(ctx context.Context) error {
	err := t.EventTracker.Close(ctx)
	return multierr.Append(err, t.processor.Stop(ctx))
}

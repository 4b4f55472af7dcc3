package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is anything that can pull fresh state from the service.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshScheduler runs a Refresher immediately on Start and then on a fixed interval.
type RefreshScheduler struct {
	target   Refresher
	interval time.Duration
	logger   *zap.Logger
	cron     *cron.Cron

	ctx     context.Context
	cancel  context.CancelFunc
	startMu sync.Mutex
	started bool
	wg      sync.WaitGroup
}

func NewRefreshScheduler(target Refresher, interval time.Duration, logger *zap.Logger) (*RefreshScheduler, error) {
	if interval < time.Second {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	rs := &RefreshScheduler{
		target:   target,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := rs.cron.AddFunc(schedule, rs.run); err != nil {
		cancel()
		return nil, err
	}
	return rs, nil
}

// Start runs one refresh in the background and starts the schedule.
func (rs *RefreshScheduler) Start() {
	rs.startMu.Lock()
	defer rs.startMu.Unlock()
	if rs.started {
		return
	}
	rs.started = true
	rs.wg.Add(1)
	go func() {
		defer rs.wg.Done()
		rs.run()
	}()
	rs.cron.Start()
	rs.logger.Info("refresh scheduler started", zap.Duration("interval", rs.interval))
}

// Stop cancels refreshes in progress and waits for them, or for ctx.
func (rs *RefreshScheduler) Stop(ctx context.Context) error {
	rs.cancel()
	stopCtx := rs.cron.Stop()
	waited := make(chan struct{})
	go func() {
		rs.wg.Wait()
		<-stopCtx.Done()
		close(waited)
	}()
	select {
	case <-waited:
		rs.logger.Info("refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rs *RefreshScheduler) run() {
	if rs.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(rs.ctx, rs.interval)
	defer cancel()
	if err := rs.target.Refresh(ctx); err != nil {
		rs.logger.Warn("scheduled refresh failed", zap.Error(err))
	}
}

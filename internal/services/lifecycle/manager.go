package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

// Stage orders teardown. Stages run in ascending order, hooks inside a stage in reverse
// registration order.
type Stage int

const (
	// StageSession ends the live session: the refresh scheduler stops, queued tracking
	// events are flushed while the credential is still valid, then the credential is revoked.
	StageSession Stage = iota
	// StageWorkers stops background loops and servers.
	StageWorkers
	// StageStorage closes local stores. Its hooks run even after the overall deadline.
	StageStorage
	// StageLogger flushes the logger last.
	StageLogger
)

func (s Stage) String() string {
	switch s {
	case StageSession:
		return "session"
	case StageWorkers:
		return "workers"
	case StageStorage:
		return "storage"
	case StageLogger:
		return "logger"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Hook is one named teardown step. A positive Timeout caps the hook inside the overall budget.
type Hook struct {
	Name    string
	Stage   Stage
	Timeout time.Duration
	Fn      ShutdownFunc
}

// Manager runs teardown hooks stage by stage and reacts to OS signals.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []Hook
}

// New creates a lifecycle manager with the overall shutdown budget.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a hook without its own timeout.
func (m *Manager) Register(stage Stage, name string, fn ShutdownFunc) {
	m.Add(Hook{Name: name, Stage: stage, Fn: fn})
}

// Add registers h. Hooks without a function are ignored.
func (m *Manager) Add(h Hook) {
	if h.Fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Shutdown runs every registered hook once and combines their errors. A failing or slow hook
// does not stop the ones after it. Later calls are no-ops until new hooks are added.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	order := make([]int, len(hooks))
	for i := range order {
		order[i] = len(hooks) - 1 - i
	}
	sort.SliceStable(order, func(a, b int) bool { return hooks[order[a]].Stage < hooks[order[b]].Stage })

	var result error
	for _, i := range order {
		h := hooks[i]
		start := time.Now()
		if err := m.run(ctx, h); err != nil {
			m.logger.Error("shutdown hook failed",
				zap.String("stage", h.Stage.String()),
				zap.String("component", h.Name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			result = multierr.Append(result, fmt.Errorf("%s: %w", h.Name, err))
			continue
		}
		m.logger.Info("component stopped",
			zap.String("stage", h.Stage.String()),
			zap.String("component", h.Name),
			zap.Duration("duration", time.Since(start)))
	}
	return result
}

func (m *Manager) run(ctx context.Context, h Hook) error {
	if h.Stage >= StageStorage {
		// local files must be closed even when the budget is spent
		ctx = context.WithoutCancel(ctx)
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	return h.Fn(ctx)
}

// Watch returns a context that is cancelled on SIGINT or SIGTERM, or when stop is called.
func (m *Manager) Watch(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

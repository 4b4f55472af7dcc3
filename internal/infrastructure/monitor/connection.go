package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/repository"
)

// Status is the last observed reachability of the task service.
type Status struct {
	Online    bool      `json:"online"`
	LastError string    `json:"last_error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// Monitor pings the service on an interval. It starts pessimistic: offline until the first ping succeeds.
type Monitor struct {
	checker  repository.HealthChecker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	status   Status
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func New(checker repository.HealthChecker, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checker:  checker,
		interval: interval,
		timeout:  3 * time.Second,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

// Stop ends the loop and waits for it. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.done
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check pings once and records the result.
func (m *Monitor) Check(ctx context.Context) Status {
	status := Status{LastCheck: time.Now()}
	if m.checker != nil {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := m.checker.Ping(ctx)
		cancel()
		status.Online = err == nil
		if err != nil {
			status.LastError = err.Error()
		}
	}

	m.mu.Lock()
	changed := m.status.Online != status.Online
	m.status = status
	m.mu.Unlock()

	if changed {
		m.logger.Info("service reachability changed", zap.Bool("online", status.Online), zap.String("error", status.LastError))
	}
	return status
}

func (m *Monitor) loop() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Check(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

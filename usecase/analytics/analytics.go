package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/metrics"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase"
)

// UseCase caches the analytics snapshot of the current session. Reads are served from
// the cache; only Refresh replaces it, optimistic completions adjust XP and weekly counts.
type UseCase struct {
	gateway repository.AnalyticsGateway
	logger  *zap.Logger
	now     func() time.Time
	timeout time.Duration
	group   singleflight.Group

	mu        sync.RWMutex
	snapshot  *domain.Snapshot
	loading   bool
	err       error
	gen       uint64
	listeners map[int]usecase.Listener
	nextID    int
}

func New(gateway repository.AnalyticsGateway, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		gateway:   gateway,
		logger:    logger,
		now:       time.Now,
		timeout:   defaultRefreshTimeout,
		listeners: make(map[int]usecase.Listener),
	}
}

const defaultRefreshTimeout = 30 * time.Second

// WithTimeout bounds each shared fetch. Non-positive values keep the default.
func (uc *UseCase) WithTimeout(d time.Duration) *UseCase {
	if d > 0 {
		uc.timeout = d
	}
	return uc
}

// Refresh fetches the dashboard and insights concurrently and replaces the snapshot when
// both succeed. On failure the previous snapshot is kept and the error recorded.
// Concurrent callers share one fetch. The fetch is detached from the caller's cancellation and
// bounded by the refresh timeout; a cancelled caller returns early while the others keep waiting.
func (uc *UseCase) Refresh(ctx context.Context) error {
	ch := uc.group.DoChan("refresh", func() (interface{}, error) {
		return nil, uc.refresh(ctx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return domain.WrapError(domain.ErrCodeNetwork, "analytics refresh abandoned", ctx.Err())
	}
}

func (uc *UseCase) refresh(ctx context.Context) error {
	uc.mu.Lock()
	uc.loading = true
	gen := uc.gen
	uc.mu.Unlock()
	uc.notify()

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.timeout)
	defer cancel()
	snap, err := uc.fetch(fetchCtx)

	uc.mu.Lock()
	if gen != uc.gen {
		// the session changed while fetching
		uc.mu.Unlock()
		return err
	}
	uc.loading = false
	if err != nil {
		uc.err = err
		uc.mu.Unlock()
		metrics.Refreshes.WithLabelValues("error").Inc()
		uc.logger.Warn("analytics refresh failed", zap.Error(err))
		uc.notify()
		return err
	}
	uc.snapshot = snap
	uc.err = nil
	uc.mu.Unlock()
	metrics.Refreshes.WithLabelValues("ok").Inc()
	uc.notify()
	return nil
}

func (uc *UseCase) fetch(ctx context.Context) (*domain.Snapshot, error) {
	var (
		snap     *domain.Snapshot
		insights []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := uc.gateway.Dashboard(gctx)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	g.Go(func() error {
		list, err := uc.gateway.Insights(gctx)
		if err != nil {
			return err
		}
		insights = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, domain.ErrMalformed
	}
	out := snap.Clone()
	out.Insights = append([]string(nil), insights...)
	out.Normalize()
	if out.FetchedAt.IsZero() {
		out.FetchedAt = uc.now()
	}
	return out, nil
}

// ApplyOptimisticCompletion credits the XP for completing task ahead of the next refresh
// and returns the amount applied. A missing snapshot starts from zero.
func (uc *UseCase) ApplyOptimisticCompletion(task domain.Task) int {
	xp := domain.XPForPriority(task.Priority)

	uc.mu.Lock()
	if uc.snapshot == nil {
		uc.snapshot = &domain.Snapshot{}
	}
	uc.snapshot.UserStats.AddXP(xp)
	uc.snapshot.UserStats.TotalTasksCompleted++
	uc.snapshot.WeeklyMetrics.TasksCompleted++
	if goal := uc.snapshot.WeeklyMetrics.Goal; goal > 0 {
		uc.snapshot.WeeklyCompletion = float64(uc.snapshot.WeeklyMetrics.TasksCompleted) / float64(goal) * 100
	}
	uc.mu.Unlock()

	uc.logger.Debug("optimistic completion applied", zap.String("task_id", task.ID), zap.Int("xp", xp))
	uc.notify()
	return xp
}

// Snapshot returns a copy of the cached snapshot, or nil before the first refresh.
func (uc *UseCase) Snapshot() *domain.Snapshot {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.snapshot.Clone()
}

// Level reports the level summary, defaults when no snapshot is cached.
func (uc *UseCase) Level() domain.LevelInfo {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.snapshot.LevelInfo()
}

func (uc *UseCase) Insights() []string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.snapshot == nil {
		return []string{}
	}
	return append([]string{}, uc.snapshot.Insights...)
}

func (uc *UseCase) Loading() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.loading
}

// Err returns the error of the last failed refresh.
func (uc *UseCase) Err() error {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.err
}

func (uc *UseCase) Heatmap(ctx context.Context) ([]domain.HeatmapDay, error) {
	return uc.gateway.Heatmap(ctx)
}

func (uc *UseCase) Productivity(ctx context.Context) (*domain.ProductivityMetrics, error) {
	return uc.gateway.Productivity(ctx)
}

// Subscribe registers l to run after every state change. The returned function detaches it.
func (uc *UseCase) Subscribe(l usecase.Listener) (unsubscribe func()) {
	uc.mu.Lock()
	id := uc.nextID
	uc.nextID++
	uc.listeners[id] = l
	uc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			uc.mu.Lock()
			delete(uc.listeners, id)
			uc.mu.Unlock()
		})
	}
}

// Reset drops the snapshot for a session change. Refreshes still in flight are discarded.
func (uc *UseCase) Reset() {
	uc.mu.Lock()
	uc.snapshot = nil
	uc.err = nil
	uc.loading = false
	uc.gen++
	uc.mu.Unlock()
	uc.notify()
}

func (uc *UseCase) notify() {
	uc.mu.RLock()
	listeners := make([]usecase.Listener, 0, len(uc.listeners))
	for _, l := range uc.listeners {
		listeners = append(listeners, l)
	}
	uc.mu.RUnlock()
	for _, l := range listeners {
		l()
	}
}

var _ usecase.CompletionObserver = (*UseCase)(nil)

package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/metrics"
	"github.com/fastygo/taskpulse/repository"
	"github.com/fastygo/taskpulse/usecase"
)

// EventBuffer keeps events the tracker could not deliver.
type EventBuffer interface {
	BufferEvent(ctx context.Context, event domain.Event) error
}

type TrackerConfig struct {
	QueueSize int
	// Rate is the number of deliveries per second. Zero or less disables limiting.
	Rate        float64
	Burst       int
	SendTimeout time.Duration
}

// EventTracker queues tracking events and delivers them from a single worker.
// Track calls never block and never fail; a full queue drops the event.
type EventTracker struct {
	events  repository.EventGateway
	buffer  EventBuffer
	limiter *rate.Limiter
	logger  *zap.Logger
	cfg     TrackerConfig
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan domain.Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEventTracker starts the delivery worker. buf may be nil.
func NewEventTracker(events repository.EventGateway, buf EventBuffer, logger *zap.Logger, cfg TrackerConfig) *EventTracker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &EventTracker{
		events:  events,
		buffer:  buf,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		queue:   make(chan domain.Event, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *EventTracker) TrackCreated(task domain.Task) {
	t.enqueue(domain.Event{
		Kind:     domain.EventTaskCreated,
		TaskID:   task.ID,
		Priority: task.Priority,
		Category: task.Category,
	})
}

func (t *EventTracker) TrackUpdated(taskID string, fields []string) {
	t.enqueue(domain.Event{
		Kind:    domain.EventTaskUpdated,
		TaskID:  taskID,
		Updates: append([]string(nil), fields...),
	})
}

func (t *EventTracker) TrackDeleted(taskID string) {
	t.enqueue(domain.Event{Kind: domain.EventTaskDeleted, TaskID: taskID})
}

func (t *EventTracker) TrackCompleted(c domain.Completion) {
	t.enqueue(domain.Event{
		Kind:       domain.EventTaskCompleted,
		TaskID:     c.TaskID,
		Priority:   c.Priority,
		XPEarned:   c.XP,
		OccurredAt: c.OccurredAt,
	})
}

// Close stops accepting events and waits for queued ones to be handled.
// When ctx ends first, deliveries in progress are cancelled and the rest go to the buffer.
func (t *EventTracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		<-t.done
		return ctx.Err()
	}
}

func (t *EventTracker) enqueue(ev domain.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = t.now()
	}
	kind := string(ev.Kind)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		metrics.Events.WithLabelValues(kind, "dropped").Inc()
		t.logger.Debug("tracker closed, event dropped", zap.String("kind", kind), zap.String("task_id", ev.TaskID))
		return
	}
	select {
	case t.queue <- ev:
		metrics.Events.WithLabelValues(kind, "queued").Inc()
	default:
		metrics.Events.WithLabelValues(kind, "dropped").Inc()
		t.logger.Warn("tracker queue full, event dropped", zap.String("kind", kind), zap.String("task_id", ev.TaskID))
	}
}

func (t *EventTracker) run() {
	defer close(t.done)
	for ev := range t.queue {
		t.deliver(ev)
	}
}

func (t *EventTracker) deliver(ev domain.Event) {
	kind := string(ev.Kind)
	ctx, cancel := context.WithTimeout(t.ctx, t.cfg.SendTimeout)
	defer cancel()

	err := t.limiter.Wait(ctx)
	if err == nil {
		err = t.events.Track(ctx, ev)
	}
	if err == nil {
		metrics.Events.WithLabelValues(kind, "delivered").Inc()
		return
	}

	metrics.Events.WithLabelValues(kind, "failed").Inc()
	t.logger.Warn("event delivery failed", zap.String("kind", kind), zap.String("task_id", ev.TaskID), zap.Error(err))
	// a missing credential will not heal by retrying
	if t.buffer == nil || domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		return
	}
	if err := t.buffer.BufferEvent(context.Background(), ev); err != nil {
		t.logger.Error("failed to buffer event", zap.String("kind", kind), zap.Error(err))
		return
	}
	metrics.Events.WithLabelValues(kind, "buffered").Inc()
}

var _ usecase.EventTracker = (*EventTracker)(nil)

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/internal/infrastructure/buffer"
	"github.com/fastygo/taskpulse/internal/metrics"
	"github.com/fastygo/taskpulse/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// MaxAge drops items that have waited longer than this. Zero keeps them forever.
	MaxAge time.Duration
}

// BufferProcessor redelivers events that failed to reach the service.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	events  repository.EventGateway
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	events repository.EventGateway,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		events:  events,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	}); err != nil {
		bp.logger.Error("invalid buffer drain schedule", zap.String("schedule", schedule), zap.Error(err))
	}
	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for a running drain, or for ctx.
func (bp *BufferProcessor) Stop(ctx context.Context) error {
	if bp == nil || bp.cron == nil {
		return nil
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	bp.logger.Info("buffer processor stopped")
	return nil
}

// Drain delivers one batch. It does nothing while the service is offline.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	defer bp.reportSize()

	if bp.cfg.MaxAge > 0 {
		if n, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.MaxAge)); err != nil {
			bp.logger.Warn("buffer cleanup failed", zap.Error(err))
		} else if n > 0 {
			bp.logger.Warn("expired buffered events dropped", zap.Int("count", n))
		}
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := bp.processItem(ctx, item); err != nil {
			item.Retries++
			bp.logger.Warn("buffered event delivery failed",
				zap.String("item_id", item.ID),
				zap.String("kind", item.Kind),
				zap.Int("retries", item.Retries),
				zap.Error(err))

			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping buffered event (max retries reached)", zap.String("item_id", item.ID))
				metrics.Events.WithLabelValues(item.Kind, "dropped").Inc()
				if err := bp.store.Remove(item); err != nil {
					bp.logger.Warn("failed to remove buffer item", zap.Error(err))
				}
				continue
			}
			if err := bp.store.Requeue(item); err != nil {
				bp.logger.Error("failed to requeue buffer item", zap.Error(err))
			}
			continue
		}

		metrics.Events.WithLabelValues(item.Kind, "delivered").Inc()
		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
		}
	}
	return nil
}

// BufferEvent persists an event for a later drain.
func (bp *BufferProcessor) BufferEvent(_ context.Context, event domain.Event) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	priority := buffer.PriorityDefault
	if event.Kind == domain.EventTaskCompleted {
		priority = buffer.PriorityCompletion
	}
	err = bp.store.Enqueue(buffer.Item{
		ID:       event.ID,
		Entity:   buffer.EntityEvent,
		Kind:     string(event.Kind),
		Data:     payload,
		Priority: priority,
	})
	bp.reportSize()
	return err
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) reportSize() {
	metrics.BufferSize.Set(float64(bp.Size()))
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if item.Entity != buffer.EntityEvent {
		return fmt.Errorf("unsupported entity %s", item.Entity)
	}
	var event domain.Event
	if err := json.Unmarshal(item.Data, &event); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = item.ID
	}
	return bp.events.Track(ctx, event)
}

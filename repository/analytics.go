package repository

import (
	"context"

	"github.com/fastygo/taskpulse/domain"
)

// AnalyticsGateway is the remote analytics API.
type AnalyticsGateway interface {
	Dashboard(ctx context.Context) (*domain.Snapshot, error)
	Insights(ctx context.Context) ([]string, error)
	Heatmap(ctx context.Context) ([]domain.HeatmapDay, error)
	Productivity(ctx context.Context) (*domain.ProductivityMetrics, error)
}

// EventGateway delivers tracking events.
type EventGateway interface {
	Track(ctx context.Context, event domain.Event) error
}

// HealthChecker reports whether the service answers at all.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

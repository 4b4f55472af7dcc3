package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fastygo/taskpulse/api/transport"
	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/repository"
)

func (c *Client) Dashboard(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.do(ctx, call{op: "dashboard", method: http.MethodGet, path: "/analytics/dashboard"}, &snap); err != nil {
		return nil, err
	}
	snap.Normalize()
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	return &snap, nil
}

func (c *Client) Insights(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "insights", method: http.MethodGet, path: "/analytics/insights"}, &raw); err != nil {
		return nil, err
	}
	var payload transport.InsightsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		var bare []string
		if err := json.Unmarshal(raw, &bare); err != nil {
			return nil, domain.WrapError(domain.ErrCodeMalformed, domain.ErrMalformed.Message, err)
		}
		return bare, nil
	}
	if payload.Insights == nil {
		return []string{}, nil
	}
	return payload.Insights, nil
}

func (c *Client) Heatmap(ctx context.Context) ([]domain.HeatmapDay, error) {
	var days []domain.HeatmapDay
	if err := c.do(ctx, call{op: "heatmap", method: http.MethodGet, path: "/analytics/heatmap"}, &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *Client) Productivity(ctx context.Context) (*domain.ProductivityMetrics, error) {
	var m domain.ProductivityMetrics
	if err := c.do(ctx, call{op: "productivity", method: http.MethodGet, path: "/analytics/productivity"}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Track(ctx context.Context, event domain.Event) error {
	return c.do(ctx, call{op: "track_event", method: http.MethodPost, path: "/analytics/events", body: event}, nil)
}

// Ping checks reachability. It is the one call issued without a credential.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, call{op: "health", method: http.MethodGet, path: "/health", public: true}, nil)
}

var (
	_ repository.TaskGateway      = (*Client)(nil)
	_ repository.ScheduleGateway  = (*Client)(nil)
	_ repository.AnalyticsGateway = (*Client)(nil)
	_ repository.EventGateway     = (*Client)(nil)
	_ repository.HealthChecker    = (*Client)(nil)
)
